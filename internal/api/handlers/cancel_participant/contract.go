package cancel_participant

import (
	"context"

	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

type BookingService interface {
	CancelParticipant(ctx context.Context, req *models.CancelParticipantRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
