package create_booking

import "errors"

var (
	// ErrTrekNotFound возвращается, когда трек не найден
	ErrTrekNotFound = errors.New("create_booking: trek not found")

	// ErrBatchNotFound возвращается, когда батч не найден в рамках трека
	ErrBatchNotFound = errors.New("create_booking: batch not found")

	// ErrTrekDisabled возвращается, когда трек выключен из продажи
	ErrTrekDisabled = errors.New("create_booking: trek is disabled")

	// ErrBatchStarted возвращается, когда батч уже стартовал
	ErrBatchStarted = errors.New("create_booking: batch has already started")

	// ErrBatchFull возвращается, когда в батче недостаточно свободных мест
	ErrBatchFull = errors.New("create_booking: batch is full")

	// ErrPartialPaymentDisabled возвращается, когда трек не разрешает частичную оплату
	ErrPartialPaymentDisabled = errors.New("create_booking: partial payment is disabled for this trek")

	// ErrFinalPaymentWindow возвращается, когда до старта слишком мало дней для рассрочки
	ErrFinalPaymentWindow = errors.New("create_booking: too close to departure for partial payment")

	// ErrAmountMismatch возвращается, когда клиентская сумма первого взноса
	// расходится с серверным расчётом
	ErrAmountMismatch = errors.New("create_booking: initial amount mismatch")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
