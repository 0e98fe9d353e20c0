package complete_partial_payment

import (
	"context"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

type PartialPaymentService interface {
	MarkComplete(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
