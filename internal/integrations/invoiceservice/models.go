package invoiceservice

// InvoiceRequest запрос на выпуск инвойса по подтверждённому бронированию
type InvoiceRequest struct {
	BookingID    int64   `json:"booking_id"`
	UserID       int64   `json:"user_id"`
	TrekID       int64   `json:"trek_id"`
	Amount       float64 `json:"amount"`
	ContactName  string  `json:"contact_name"`
	ContactEmail string  `json:"contact_email"`
}

// Invoice модель выпущенного инвойса
type Invoice struct {
	ID        string `json:"id"`
	BookingID int64  `json:"booking_id"`
	URL       string `json:"url"`
}

// ErrorResponse модель ошибки от InvoiceService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
