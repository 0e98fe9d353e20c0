package capacity

import "errors"

var (
	// ErrBatchNotFound возвращается, когда батч не найден
	ErrBatchNotFound = errors.New("batch not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("capacity service: internal error")
)
