package partialpayment

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotPartialPayment возвращается для бронирований без частичной оплаты
	ErrNotPartialPayment = errors.New("booking is not a partial payment")

	// ErrAlreadyCompleted возвращается при повторном закрытии остатка
	ErrAlreadyCompleted = errors.New("partial payment already completed")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("partialpayment service: internal error")
)
