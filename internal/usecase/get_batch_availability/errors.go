package get_batch_availability

import "errors"

var (
	// ErrTrekNotFound возвращается, когда трек не найден
	ErrTrekNotFound = errors.New("get_batch_availability: trek not found")

	// ErrTrekDisabled возвращается, когда трек выключен из продажи
	ErrTrekDisabled = errors.New("get_batch_availability: trek is disabled")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_batch_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_batch_availability: internal error")
)
