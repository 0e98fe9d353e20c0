package submit_cancellation_request

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("submit_cancellation_request: booking not found")

	// ErrAccessDenied возвращается, когда пользователь не владеет бронированием
	ErrAccessDenied = errors.New("submit_cancellation_request: access denied")

	// ErrInvalidStatus возвращается, когда статус бронирования не допускает заявок
	ErrInvalidStatus = errors.New("submit_cancellation_request: booking status does not allow requests")

	// ErrDuplicateRequest возвращается, когда по бронированию уже есть pending-заявка
	ErrDuplicateRequest = errors.New("submit_cancellation_request: pending request already exists")

	// ErrBatchNotInTrek возвращается, когда целевой батч не принадлежит треку бронирования
	ErrBatchNotInTrek = errors.New("submit_cancellation_request: preferred batch does not belong to the trek")

	// ErrSameBatch возвращается, когда целевой батч совпадает с текущим
	ErrSameBatch = errors.New("submit_cancellation_request: preferred batch is the current batch")

	// ErrBatchStarted возвращается, когда целевой батч уже стартовал
	ErrBatchStarted = errors.New("submit_cancellation_request: preferred batch has already started")

	// ErrBatchFull возвращается, когда в целевом батче недостаточно свободных мест
	ErrBatchFull = errors.New("submit_cancellation_request: preferred batch is full")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("submit_cancellation_request: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("submit_cancellation_request: internal error")
)
