package partialpayment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/notifyservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	CompletePartial(ctx context.Context, id int64, status domain.BookingStatus, completedAt time.Time) error
	MarkReminderSent(ctx context.Context, id int64, at time.Time) error
	ListPartialPaymentsDue(ctx context.Context, from, to time.Time) ([]*domain.Booking, error)
}

// TrekRepository интерфейс репозитория треков и батчей
type TrekRepository interface {
	GetBatchForUpdate(ctx context.Context, trekID, batchID int64) (*domain.Batch, error)
}

// CapacityService интерфейс движка пересчёта занятых мест
type CapacityService interface {
	Reconcile(ctx context.Context, trekID, batchID int64) (int, error)
}

// NotifyServiceClient интерфейс сервиса уведомлений
type NotifyServiceClient interface {
	SendPaymentReminder(ctx context.Context, reminder notifyservice.PaymentReminder) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
