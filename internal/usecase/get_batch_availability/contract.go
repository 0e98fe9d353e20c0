package get_batch_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// TrekRepository интерфейс репозитория треков и батчей
type TrekRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Trek, error)
	ListBatchesByTrek(ctx context.Context, trekID int64) ([]*domain.Batch, error)
}

// CapacityService интерфейс движка пересчёта занятых мест
type CapacityService interface {
	SeatsUsed(ctx context.Context, batchID int64) (int, error)
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
