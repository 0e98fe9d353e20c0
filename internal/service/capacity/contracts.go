package capacity

import (
	"context"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListByBatch(ctx context.Context, batchID int64) ([]*domain.Booking, error)
}

// TrekRepository интерфейс репозитория треков и батчей
type TrekRepository interface {
	GetBatch(ctx context.Context, trekID, batchID int64) (*domain.Batch, error)
	UpdateBatchParticipants(ctx context.Context, batchID int64, count int, version int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
