package dto

type DepositResponse struct {
	Success      bool   `json:"success"`
	Status       string `json:"status,omitempty"`
	QRCode       string `json:"qrcode,omitempty"`
	QRCodeBase64 string `json:"qrcode_base64,omitempty"`
	Gateway      string `json:"gateway,omitempty"`
	Message      string `json:"message,omitempty"`
}

type WithdrawResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CallbackResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
