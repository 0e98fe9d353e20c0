package paymentgateway

// RefundRequest запрос на возврат средств по платежу
type RefundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// RefundResult ответ шлюза на запрос возврата
type RefundResult struct {
	RefundID  string  `json:"refund_id"`
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// ErrorResponse модель ошибки от платёжного шлюза
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
