package ledger

import "time"

// Status de depósito. PAID é terminal; transições para FAILED ou status
// específicos do provedor só acontecem a partir de PENDING.
const (
	DepositPending = "PENDING"
	DepositPaid    = "PAID"
	DepositFailed  = "FAILED"
)

// Status de saque. A transição terminal (APPROVED/REJECTED) é feita por um
// processo externo que consome o tópico withdraw_requested.
const (
	WithdrawalPending  = "PENDING"
	WithdrawalApproved = "APPROVED"
	WithdrawalRejected = "REJECTED"
)

// Account é a conta do usuário na plataforma. Saldo em centavos, nunca negativo.
type Account struct {
	ID              string
	Name            string
	Email           string
	BalanceCents    int64
	ReferrerID      string // conta do afiliado que indicou, vazio se não houver
	CommissionCents int64  // CPA do afiliado; 0 desabilita comissão
	Banned          bool
}

// Deposit é uma solicitação de depósito Pix rastreada de PENDING até um status terminal.
// GatewayTxID é o id do gateway; ExternalID é o id de correlação gerado por nós,
// usado como chave da sessão de checkout. Os dois nunca se misturam.
type Deposit struct {
	ID             string
	GatewayTxID    string
	ExternalID     string
	AccountID      string
	Name           string
	CPF            string
	AmountCents    int64
	Status         string
	QRCode         string
	Gateway        string
	IdempotencyKey string
	CreatedAt      time.Time
	PaidAt         *time.Time
}

// Withdrawal é uma solicitação de saque pendente de aprovação externa.
type Withdrawal struct {
	ID            string
	TransactionID string
	AccountID     string
	Name          string // nome resolvido via consulta de CPF (best-effort)
	CPF           string
	AmountCents   int64
	Status        string
	CreatedAt     time.Time
}

// CheckoutSession guarda os dados de atribuição capturados na iniciação do
// depósito, consultados pelo webhook para montar o evento Purchase.
// Chaveada pelo ExternalID do depósito; não é fonte de verdade de dinheiro.
type CheckoutSession struct {
	ExternalID  string
	AccountID   string
	Email       string
	Phone       string
	AmountCents int64
	FBP         string
	FBC         string
	IPAddress   string
	UserAgent   string
}

// CommissionEntry é a trilha de auditoria de comissões CPA. Append-only;
// no máximo uma entrada por depósito.
type CommissionEntry struct {
	ReferrerID  string
	ReferredID  string
	DepositID   string
	AmountCents int64
	CreatedAt   time.Time
}
