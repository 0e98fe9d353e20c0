package create_booking

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	UserID               int64
	TrekID               int64
	BatchID              int64
	NumberOfParticipants int
	ContactName          string
	ContactEmail         string
	PaymentMode          string   // "full" | "partial"
	ClientInitialAmount  *float64 // клиентский расчёт первого взноса (кросс-проверка)
	PromoCode            *string
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID                   int64
	UserID               int64
	TrekID               int64
	BatchID              int64
	NumberOfParticipants int
	TotalPrice           float64
	Status               string
	PaymentMode          string
	PromoCode            *string
	ContactName          string
	ContactEmail         string

	// Рассрочка (только для paymentMode=partial)
	InitialAmount       *float64
	RemainingAmount     *float64
	FinalPaymentDueDate *time.Time

	// Сессия pending-бронирования для повторных попыток оплаты
	SessionToken     *string
	SessionExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
