package resolve_cancellation_request

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("resolve_cancellation_request: booking not found")

	// ErrNoPendingRequest возвращается, когда по бронированию нет pending-заявки
	ErrNoPendingRequest = errors.New("resolve_cancellation_request: no pending request")

	// ErrAlreadyCancelled возвращается, когда бронирование уже отменено
	ErrAlreadyCancelled = errors.New("resolve_cancellation_request: booking is already cancelled")

	// ErrTrekStarted возвращается, когда батч бронирования уже стартовал
	ErrTrekStarted = errors.New("resolve_cancellation_request: trek has already started")

	// ErrBatchFull возвращается, когда в целевом батче недостаточно свободных мест
	ErrBatchFull = errors.New("resolve_cancellation_request: preferred batch is full")

	// ErrBatchNotInTrek возвращается, когда целевой батч не принадлежит треку
	ErrBatchNotInTrek = errors.New("resolve_cancellation_request: preferred batch does not belong to the trek")

	// ErrBatchStarted возвращается, когда целевой батч уже стартовал
	ErrBatchStarted = errors.New("resolve_cancellation_request: preferred batch has already started")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("resolve_cancellation_request: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("resolve_cancellation_request: internal error")
)
