package paymentgateway

import "errors"

var (
	// ErrPaymentNotFound возвращается, когда платёж не найден в шлюзе
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrRefundFailed возвращается, когда шлюз отклонил возврат
	ErrRefundFailed = errors.New("paymentgateway client: refund rejected")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paymentgateway client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("paymentgateway client: invalid response")
)
