package shift_batch

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	SetBatch(ctx context.Context, id int64, batchID int64, finalPaymentDueDate *time.Time) error
}

// TrekRepository интерфейс репозитория треков и батчей
type TrekRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Trek, error)
	GetBatchForUpdate(ctx context.Context, trekID, batchID int64) (*domain.Batch, error)
}

// CapacityService интерфейс движка пересчёта занятых мест
type CapacityService interface {
	SeatsUsed(ctx context.Context, batchID int64) (int, error)
	Reconcile(ctx context.Context, trekID, batchID int64) (int, error)
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
