package capacity

import (
	"context"
	"errors"
	"fmt"

	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

// Количество попыток записи счётчика под optimistic-токеном версии батча
const reconcileAttempts = 3

// Service сервис пересчёта занятых мест батча
//
// Авторитетный источник занятости - строки бронирований, а не кэшированный
// счётчик батча. Счётчик обновляется только через Reconcile и служит
// денормализацией для выдачи наружу.
type Service struct {
	bookingRepo BookingRepository
	trekRepo    TrekRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса пересчёта мест
func NewService(bookingRepo BookingRepository, trekRepo TrekRepository, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		trekRepo:    trekRepo,
		logger:      logger,
	}
}

// SeatsUsed считает занятые места батча по живым бронированиям
func (s *Service) SeatsUsed(ctx context.Context, batchID int64) (int, error) {
	bookings, err := s.bookingRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return 0, fmt.Errorf("%w: SeatsUsed - repository error: %v", ErrInternal, err)
	}

	used := 0
	for _, booking := range bookings {
		used += booking.SeatsHeld()
	}

	return used, nil
}

// FreeSeats возвращает число свободных мест батча с учётом резерва гидов
func (s *Service) FreeSeats(ctx context.Context, trekID, batchID int64) (int, error) {
	batch, err := s.trekRepo.GetBatch(ctx, trekID, batchID)
	if err != nil {
		if errors.Is(err, trekRepo.ErrBatchNotFound) {
			return 0, ErrBatchNotFound
		}
		return 0, fmt.Errorf("%w: FreeSeats - repository error: %v", ErrInternal, err)
	}

	used, err := s.SeatsUsed(ctx, batchID)
	if err != nil {
		return 0, err
	}

	return batch.FreeSeats(used), nil
}

// Reconcile пересчитывает занятость батча по бронированиям и сохраняет
// счётчик под версионным токеном. Возвращает свежее число занятых мест.
//
// Внутри сериализуемой транзакции с заблокированным батчем конфликт версии
// невозможен. Вне транзакции конфликт означает конкурентное обновление,
// пересчёт честно повторяется по свежей версии.
func (s *Service) Reconcile(ctx context.Context, trekID, batchID int64) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= reconcileAttempts; attempt++ {
		batch, err := s.trekRepo.GetBatch(ctx, trekID, batchID)
		if err != nil {
			if errors.Is(err, trekRepo.ErrBatchNotFound) {
				return 0, ErrBatchNotFound
			}
			return 0, fmt.Errorf("%w: Reconcile - repository error: %v", ErrInternal, err)
		}

		used, err := s.SeatsUsed(ctx, batchID)
		if err != nil {
			return 0, err
		}

		err = s.trekRepo.UpdateBatchParticipants(ctx, batchID, used, batch.Version)
		if err == nil {
			if batch.CurrentParticipants != used {
				s.logger.Info("Reconcile: batch=%d counter corrected %d -> %d", batchID, batch.CurrentParticipants, used)
			}
			return used, nil
		}

		if errors.Is(err, trekRepo.ErrVersionConflict) {
			s.logger.Warn("Reconcile: batch=%d version conflict on attempt %d, retrying", batchID, attempt)
			lastErr = err
			continue
		}

		return 0, fmt.Errorf("%w: Reconcile - update counter: %v", ErrInternal, err)
	}

	return 0, fmt.Errorf("%w: Reconcile - attempts exhausted: %v", ErrInternal, lastErr)
}
