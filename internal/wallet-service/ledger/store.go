package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("saldo insuficiente")
	ErrPendingWithdrawal = errors.New("saque pendente existente")
	ErrNotFound          = errors.New("not found")
)

// Store é o ledger transacional de contas e movimentações.
type Store interface {
	// WithTx executa fn dentro de uma transação. Qualquer erro retornado por fn
	// desfaz todas as mutações; nil confirma tudo atomicamente.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetAccount(ctx context.Context, id string) (*Account, error)
	GetCheckoutSession(ctx context.Context, externalID string) (*CheckoutSession, error)
	ActiveGateway(ctx context.Context) (string, error)
}

// Tx expõe as operações disponíveis dentro de uma transação do ledger.
// Os métodos *ForUpdate adquirem lock exclusivo de linha até o fim da transação.
type Tx interface {
	AccountForUpdate(ctx context.Context, id string) (*Account, error)
	DepositForUpdate(ctx context.Context, gatewayTxID, gateway string) (*Deposit, error)

	InsertDeposit(ctx context.Context, d *Deposit) error
	UpsertCheckoutSession(ctx context.Context, s *CheckoutSession) error
	UpdateDepositStatus(ctx context.Context, depositID, status string, paidAt *time.Time) error

	CreditBalance(ctx context.Context, accountID string, cents int64) error
	DebitBalance(ctx context.Context, accountID string, cents int64) error

	HasPendingWithdrawal(ctx context.Context, accountID string) (bool, error)
	InsertWithdrawal(ctx context.Context, w *Withdrawal) error

	CountOtherPaidDeposits(ctx context.Context, accountID, excludeDepositID string) (int, error)
	InsertCommissionEntry(ctx context.Context, e *CommissionEntry) error
}
