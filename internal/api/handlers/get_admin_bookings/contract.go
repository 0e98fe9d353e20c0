package get_admin_bookings

import (
	"context"

	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

type BookingService interface {
	GetAdminBookings(ctx context.Context, req *models.GetAdminBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
