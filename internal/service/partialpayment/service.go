package partialpayment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/notifyservice"
)

// Service сервис жизненного цикла частичной оплаты
type Service struct {
	bookingRepo        BookingRepository
	trekRepo           TrekRepository
	capacity           CapacityService
	notifyClient       NotifyServiceClient
	txManager          TransactionManager
	timeProvider       TimeProvider
	reminderWindowDays int
	logger             Logger
}

// NewService создает новый экземпляр сервиса частичной оплаты
func NewService(
	bookingRepo BookingRepository,
	trekRepo TrekRepository,
	capacity CapacityService,
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	reminderWindowDays int,
	logger Logger,
) *Service {
	if reminderWindowDays <= 0 {
		reminderWindowDays = domain.DefaultReminderWindowDays
	}
	return &Service{
		bookingRepo:        bookingRepo,
		trekRepo:           trekRepo,
		capacity:           capacity,
		notifyClient:       notifyClient,
		txManager:          txManager,
		timeProvider:       &RealTimeProvider{},
		reminderWindowDays: reminderWindowDays,
		logger:             logger,
	}
}

// MarkComplete закрывает остаток частичной оплаты (админ-операция)
// Бронирование с уже поданными анкетами подтверждается, без анкет переходит
// в payment_completed и ждёт их подачи
func (s *Service) MarkComplete(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	var updated *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: MarkComplete - repository error: %v", ErrInternal, err)
		}

		if booking.PaymentMode != domain.PaymentModePartial || booking.Partial == nil {
			return ErrNotPartialPayment
		}
		if booking.Partial.IsCompleted() {
			return ErrAlreadyCompleted
		}
		if booking.Status != domain.StatusPaymentConfirmedPartial {
			return fmt.Errorf("%w: booking status is %s", ErrNotPartialPayment, booking.Status)
		}

		if _, err := s.trekRepo.GetBatchForUpdate(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return fmt.Errorf("%w: MarkComplete - batch lock: %v", ErrInternal, err)
		}

		newStatus := domain.StatusPaymentCompleted
		if booking.DetailsCollected() {
			newStatus = domain.StatusConfirmed
		}

		now := s.timeProvider.Now()
		if err := s.bookingRepo.CompletePartial(txCtx, bookingID, newStatus, now); err != nil {
			return fmt.Errorf("%w: MarkComplete - complete partial: %v", ErrInternal, err)
		}

		if _, err := s.capacity.Reconcile(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return fmt.Errorf("%w: MarkComplete - reconcile: %v", ErrInternal, err)
		}

		booking.Status = newStatus
		booking.Partial.RemainingAmount = 0
		booking.Partial.CompletedAt = &now
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("MarkComplete: booking id=%d partial payment settled, status=%s", bookingID, updated.Status)
	return updated, nil
}

// SendReminder отправляет напоминание о финальном платеже по одному бронированию
// Идемпотентно: флаг reminder_sent берётся атомарно, повторный вызов ничего не шлёт
func (s *Service) SendReminder(ctx context.Context, booking *domain.Booking) error {
	if booking.Partial == nil || booking.Partial.FinalPaymentDueDate == nil {
		return ErrNotPartialPayment
	}

	now := s.timeProvider.Now()
	due := *booking.Partial.FinalPaymentDueDate
	windowStart := due.AddDate(0, 0, -s.reminderWindowDays)
	if now.Before(windowStart) || now.After(due) {
		s.logger.Info("SendReminder: booking id=%d outside reminder window, skipping", booking.ID)
		return nil
	}

	// Сначала захватываем флаг, потом шлём: двойная отправка хуже пропуска
	if err := s.bookingRepo.MarkReminderSent(ctx, booking.ID, now); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil
		}
		return fmt.Errorf("%w: SendReminder - mark sent: %v", ErrInternal, err)
	}

	err := s.notifyClient.SendPaymentReminder(ctx, notifyservice.PaymentReminder{
		BookingID:       booking.ID,
		UserID:          booking.UserID,
		ContactEmail:    booking.ContactEmail,
		ContactName:     booking.ContactName,
		RemainingAmount: booking.Partial.RemainingAmount,
		DueDate:         due,
	})
	if err != nil {
		s.logger.Error("SendReminder: notify failed for booking id=%d: %v", booking.ID, err)
		return fmt.Errorf("%w: SendReminder - notify: %v", ErrInternal, err)
	}

	s.logger.Info("SendReminder: booking id=%d reminder sent", booking.ID)
	return nil
}

// ProcessDueReminders отправляет напоминания по всем бронированиям,
// чей срок финального платежа попал в окно напоминаний
// Возвращает число отправленных напоминаний
func (s *Service) ProcessDueReminders(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()
	to := now.AddDate(0, 0, s.reminderWindowDays)

	due, err := s.bookingRepo.ListPartialPaymentsDue(ctx, now, to)
	if err != nil {
		return 0, fmt.Errorf("%w: ProcessDueReminders - list due: %v", ErrInternal, err)
	}

	sent := 0
	for _, booking := range due {
		if err := s.SendReminder(ctx, booking); err != nil {
			s.logger.Error("ProcessDueReminders: booking id=%d: %v", booking.ID, err)
			continue
		}
		sent++
	}

	if len(due) > 0 {
		s.logger.Info("ProcessDueReminders: processed %d bookings, sent %d reminders", len(due), sent)
	}
	return sent, nil
}
