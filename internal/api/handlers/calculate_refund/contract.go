package calculate_refund

import (
	"context"

	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

type BookingService interface {
	CalculateRefund(ctx context.Context, req *models.CalculateRefundRequest) (*models.RefundPreviewResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
