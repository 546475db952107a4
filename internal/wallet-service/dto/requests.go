package dto

// WithdrawRequest é o corpo JSON de POST /withdraw; amount em reais
type WithdrawRequest struct {
	Amount float64 `json:"amount"`
	CPF    string  `json:"cpf"`
}
