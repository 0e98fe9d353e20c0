package trek

import "errors"

var (
	// ErrTrekNotFound возвращается, когда трек не найден
	ErrTrekNotFound = errors.New("trek.repository: trek not found")

	// ErrBatchNotFound возвращается, когда батч не найден в рамках трека
	ErrBatchNotFound = errors.New("trek.repository: batch not found")

	// ErrVersionConflict возвращается при конфликте optimistic-concurrency токена батча
	ErrVersionConflict = errors.New("trek.repository: batch version conflict")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("trek.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("trek.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("trek.repository: failed to scan row")
)
