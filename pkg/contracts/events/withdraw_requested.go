package events

// Evento publicado no tópico "withdraw_requested". O processo externo de
// aprovação de saques consome este tópico e executa a transição terminal
// (APPROVED/REJECTED) do saque.
type WithdrawRequested struct {
	WithdrawalID  string `json:"withdrawal_id"`
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	AmountCents   int64  `json:"amount_cents"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
