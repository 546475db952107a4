package events

import "time"

// Evento publicado no tópico "deposit_paid" após a confirmação de um depósito.
// Emitido fora da transação do ledger; consumidores devem tolerar duplicidade.
type DepositPaid struct {
	DepositID       string    `json:"deposit_id"`
	AccountID       string    `json:"account_id"`
	AmountCents     int64     `json:"amount_cents"`
	Gateway         string    `json:"gateway"`
	CommissionCents int64     `json:"commission_cents,omitempty"` // CPA pago ao afiliado, se houver
	PaidAt          time.Time `json:"paid_at"`
}
