package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/invoiceservice"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/paymentgateway"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByUserID(ctx context.Context, userID int64) ([]*domain.Booking, error)
	ListAdmin(ctx context.Context, filter bookingRepo.AdminFilter) ([]*domain.Booking, int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	MarkCancelled(ctx context.Context, id int64, reason string, refund bookingRepo.RefundRecord) error
	UpdateRefundStatus(ctx context.Context, id int64, status domain.RefundStatus) error
	UpdateSeatState(ctx context.Context, id int64, numberOfParticipants int, totalPrice float64) error
	ReplaceParticipants(ctx context.Context, bookingID int64, participants []*domain.Participant) error
	CancelParticipant(ctx context.Context, participantID string, reason string, refund bookingRepo.RefundRecord) error
	RestoreParticipant(ctx context.Context, participantID string) error
	UpdateParticipantRefundStatus(ctx context.Context, participantID string, status domain.RefundStatus) error
}

// TrekRepository интерфейс репозитория треков и батчей
type TrekRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Trek, error)
	GetBatch(ctx context.Context, trekID, batchID int64) (*domain.Batch, error)
	GetBatchForUpdate(ctx context.Context, trekID, batchID int64) (*domain.Batch, error)
}

// CapacityService интерфейс движка пересчёта занятых мест
type CapacityService interface {
	SeatsUsed(ctx context.Context, batchID int64) (int, error)
	Reconcile(ctx context.Context, trekID, batchID int64) (int, error)
}

// PaymentGatewayClient интерфейс платёжного шлюза (только возвраты)
type PaymentGatewayClient interface {
	Refund(ctx context.Context, paymentID string, amount float64, reason string) (*paymentgateway.RefundResult, error)
}

// InvoiceServiceClient интерфейс сервиса инвойсов
type InvoiceServiceClient interface {
	GenerateInvoice(ctx context.Context, request invoiceservice.InvoiceRequest) (*invoiceservice.Invoice, error)
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
