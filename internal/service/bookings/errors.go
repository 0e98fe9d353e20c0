package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrTrekNotFound возвращается, когда трек не найден
	ErrTrekNotFound = errors.New("trek not found")

	// ErrBatchNotFound возвращается, когда батч не найден
	ErrBatchNotFound = errors.New("batch not found")

	// ErrParticipantNotFound возвращается, когда участник не найден
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrAlreadyCancelled возвращается при повторной отмене бронирования
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrTrekStarted возвращается при отмене после даты старта батча
	ErrTrekStarted = errors.New("trek has already started")

	// ErrBatchFull возвращается, когда в батче нет свободных мест
	ErrBatchFull = errors.New("batch is full")

	// ErrParticipantNotCancelled возвращается при восстановлении живого участника
	ErrParticipantNotCancelled = errors.New("participant is not cancelled")

	// ErrInvalidStatus возвращается при попытке установить недопустимый статус
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
