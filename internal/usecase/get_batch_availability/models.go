package get_batch_availability

import "time"

// Request модель запроса на получение доступности батчей трека
type Request struct {
	TrekID int64
}

// Response модель ответа со списком отправлений и свободными местами
type Response struct {
	TrekID  int64
	Batches []BatchAvailability
}

// BatchAvailability доступность одного отправления
type BatchAvailability struct {
	BatchID   int64
	StartDate time.Time
	EndDate   time.Time
	Price     float64
	FreeSeats int
	MaxSeats  int // продаваемая вместимость за вычетом резерва
}
