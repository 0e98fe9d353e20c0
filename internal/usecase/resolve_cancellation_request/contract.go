package resolve_cancellation_request

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
	bookingmodels "github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-TrekBookingService/internal/usecase/shift_batch"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ResolveRequest(ctx context.Context, bookingID int64, status domain.RequestStatus, adminResponse *string, resolvedAt time.Time) error
}

// CancellationService интерфейс сервиса отмены бронирований
type CancellationService interface {
	CancelTx(ctx context.Context, req *bookingmodels.CancelBookingRequest) (*bookings.RefundPlan, error)
	ProcessRefunds(ctx context.Context, plan *bookings.RefundPlan)
}

// BatchShifter интерфейс переноса бронирования между батчами
type BatchShifter interface {
	ExecuteTx(ctx context.Context, req *shift_batch.Request) (*shift_batch.Response, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
