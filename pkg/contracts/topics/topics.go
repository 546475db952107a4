package topics

const (
	// Carteira
	DepositPaid       = "deposit_paid"
	WithdrawRequested = "withdraw_requested"

	// DLQs
	DepositPaidDLQ = "deposit_paid_dlq"
)
