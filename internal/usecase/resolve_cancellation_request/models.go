package resolve_cancellation_request

import "time"

// Request модель запроса на решение по заявке
type Request struct {
	BookingID     int64
	AdminID       int64
	Approve       bool
	AdminResponse *string
}

// Response модель ответа с решением по заявке
type Response struct {
	BookingID     int64
	RequestType   string
	RequestStatus string
	AdminResponse *string
	ResolvedAt    time.Time

	// NewBatchID заполняется при одобренном переносе
	NewBatchID *int64
}
