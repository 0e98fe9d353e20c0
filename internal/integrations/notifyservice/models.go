package notifyservice

import "time"

// PaymentReminder напоминание о предстоящем финальном платеже
type PaymentReminder struct {
	BookingID       int64     `json:"booking_id"`
	UserID          int64     `json:"user_id"`
	ContactEmail    string    `json:"contact_email"`
	ContactName     string    `json:"contact_name"`
	RemainingAmount float64   `json:"remaining_amount"`
	DueDate         time.Time `json:"due_date"`
}

// ErrorResponse модель ошибки от NotifyService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
