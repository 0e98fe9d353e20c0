package shift_batch

import "time"

// Request модель запроса на перенос бронирования в другой батч
type Request struct {
	BookingID     int64
	TargetBatchID int64
}

// Response модель ответа с результатом переноса
type Response struct {
	BookingID           int64
	OldBatchID          int64
	NewBatchID          int64
	Status              string
	FinalPaymentDueDate *time.Time
}
