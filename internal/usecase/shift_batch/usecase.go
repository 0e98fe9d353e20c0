package shift_batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

// UseCase use case для прямого админского переноса бронирования между батчами
type UseCase struct {
	bookingRepo  BookingRepository
	trekRepo     TrekRepository
	capacity     CapacityService
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	trekRepo TrekRepository,
	capacity CapacityService,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		trekRepo:     trekRepo,
		capacity:     capacity,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case переноса бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ShiftBatch: booking=%d, targetBatch=%d", req.BookingID, req.TargetBatchID)

	if req.BookingID <= 0 || req.TargetBatchID <= 0 {
		return nil, fmt.Errorf("%w: bookingID and targetBatchID must be positive", ErrInvalidInput)
	}

	var result *Response
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var err error
		result, err = uc.ExecuteTx(txCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("ShiftBatch: booking id=%d moved from batch id=%d to batch id=%d",
		result.BookingID, result.OldBatchID, result.NewBatchID)
	return result, nil
}

// ExecuteTx выполняет перенос внутри уже открытой транзакции
//
// Оба батча блокируются в порядке возрастания id, чтобы встречные переносы
// не взаимоблокировались. Занятость целевого батча пересчитывается по
// бронированиям, после переноса оба кэшированных счётчика выравниваются
func (uc *UseCase) ExecuteTx(ctx context.Context, req *Request) (*Response, error) {
	now := uc.timeProvider.Now()

	// 1. Бронирование должно существовать и держать места
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("ShiftBatch: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	if !booking.IsCounted() {
		uc.logger.Warn("ShiftBatch: booking id=%d has status %s", req.BookingID, booking.Status)
		return nil, ErrInvalidStatus
	}
	if req.TargetBatchID == booking.BatchID {
		return nil, ErrSameBatch
	}

	// 2. Блокируем оба батча в порядке возрастания id
	target, err := uc.lockBatches(ctx, booking, req.TargetBatchID)
	if err != nil {
		return nil, err
	}

	if target.HasStarted(now) {
		uc.logger.Warn("ShiftBatch: target batch id=%d has already started", target.ID)
		return nil, ErrBatchStarted
	}

	// 3. Проверяем вместимость целевого батча по авторитетному источнику
	seats := booking.SeatsHeld()
	used, err := uc.capacity.SeatsUsed(ctx, target.ID)
	if err != nil {
		uc.logger.Error("ShiftBatch: failed to count seats for batch id=%d: %v", target.ID, err)
		return nil, fmt.Errorf("%w: failed to count seats: %v", ErrInternal, err)
	}
	if used+seats > target.SellableCapacity() {
		uc.logger.Warn("ShiftBatch: target batch id=%d is full, used=%d, needed=%d, capacity=%d",
			target.ID, used, seats, target.SellableCapacity())
		return nil, ErrBatchFull
	}

	// 4. Пересчитываем срок финального платежа от старта нового батча
	dueDate, err := uc.recomputeDueDate(ctx, booking, target)
	if err != nil {
		return nil, err
	}

	// 5. SetBatch переназначает батч и сбрасывает флаг напоминания
	oldBatchID := booking.BatchID
	if err := uc.bookingRepo.SetBatch(ctx, booking.ID, target.ID, dueDate); err != nil {
		uc.logger.Error("ShiftBatch: failed to move booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to move booking: %v", ErrInternal, err)
	}

	// 6. Выравниваем счётчики обоих батчей
	if _, err := uc.capacity.Reconcile(ctx, booking.TrekID, oldBatchID); err != nil {
		uc.logger.Error("ShiftBatch: reconcile failed for batch id=%d: %v", oldBatchID, err)
		return nil, fmt.Errorf("%w: reconcile failed: %v", ErrInternal, err)
	}
	if _, err := uc.capacity.Reconcile(ctx, booking.TrekID, target.ID); err != nil {
		uc.logger.Error("ShiftBatch: reconcile failed for batch id=%d: %v", target.ID, err)
		return nil, fmt.Errorf("%w: reconcile failed: %v", ErrInternal, err)
	}

	return &Response{
		BookingID:           booking.ID,
		OldBatchID:          oldBatchID,
		NewBatchID:          target.ID,
		Status:              string(booking.Status),
		FinalPaymentDueDate: dueDate,
	}, nil
}

// lockBatches блокирует текущий и целевой батчи в порядке возрастания id
// и возвращает целевой
func (uc *UseCase) lockBatches(ctx context.Context, booking *domain.Booking, targetID int64) (*domain.Batch, error) {
	ids := []int64{booking.BatchID, targetID}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}

	var target *domain.Batch
	for _, id := range ids {
		batch, err := uc.trekRepo.GetBatchForUpdate(ctx, booking.TrekID, id)
		if err != nil {
			if errors.Is(err, trekRepo.ErrBatchNotFound) {
				uc.logger.Warn("ShiftBatch: batch id=%d is not part of trek id=%d", id, booking.TrekID)
				return nil, ErrBatchNotInTrek
			}
			uc.logger.Error("ShiftBatch: failed to lock batch id=%d: %v", id, err)
			return nil, fmt.Errorf("%w: failed to lock batch: %v", ErrInternal, err)
		}
		if batch.ID == targetID {
			target = batch
		}
	}
	return target, nil
}

// recomputeDueDate возвращает новый срок финального платежа для рассрочки
// с неоплаченным остатком, иначе nil
func (uc *UseCase) recomputeDueDate(ctx context.Context, booking *domain.Booking, target *domain.Batch) (*time.Time, error) {
	if booking.PaymentMode != domain.PaymentModePartial || booking.Partial == nil || booking.Partial.IsCompleted() {
		return nil, nil
	}

	trek, err := uc.trekRepo.GetByID(ctx, booking.TrekID)
	if err != nil {
		uc.logger.Error("ShiftBatch: failed to get trek id=%d: %v", booking.TrekID, err)
		return nil, fmt.Errorf("%w: failed to get trek: %v", ErrInternal, err)
	}

	days := trek.PartialPayment.FinalPaymentDueDays
	if days <= 0 {
		days = domain.DefaultFinalPaymentDueDays
	}
	due := target.StartDate.AddDate(0, 0, -days)
	return &due, nil
}
