package submit_cancellation_request

import "time"

// Request модель запроса на создание заявки отмены/переноса
type Request struct {
	BookingID        int64
	UserID           int64
	IsAdmin          bool
	RequestType      string // "cancellation" | "reschedule"
	Reason           *string
	PreferredBatchID *int64 // обязателен для reschedule
}

// Response модель ответа с созданной заявкой
type Response struct {
	BookingID        int64
	RequestType      string
	RequestStatus    string
	Reason           *string
	PreferredBatchID *int64
	CreatedAt        time.Time
}
