package submit_participants

import (
	"context"

	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

type BookingService interface {
	SubmitParticipants(ctx context.Context, bookingID int64, userID int64, isAdmin bool, inputs []models.ParticipantInput) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
