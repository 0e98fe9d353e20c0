package shift_batch

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("shift_batch: booking not found")

	// ErrInvalidStatus возвращается, когда статус бронирования не допускает перенос
	ErrInvalidStatus = errors.New("shift_batch: booking status does not allow transfer")

	// ErrBatchNotInTrek возвращается, когда целевой батч не принадлежит треку бронирования
	ErrBatchNotInTrek = errors.New("shift_batch: target batch does not belong to the trek")

	// ErrSameBatch возвращается, когда целевой батч совпадает с текущим
	ErrSameBatch = errors.New("shift_batch: target batch is the current batch")

	// ErrBatchStarted возвращается, когда целевой батч уже стартовал
	ErrBatchStarted = errors.New("shift_batch: target batch has already started")

	// ErrBatchFull возвращается, когда в целевом батче недостаточно свободных мест
	ErrBatchFull = errors.New("shift_batch: target batch is full")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("shift_batch: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("shift_batch: internal error")
)
