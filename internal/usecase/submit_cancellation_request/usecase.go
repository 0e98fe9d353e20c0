package submit_cancellation_request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

// UseCase use case для создания заявки на отмену или перенос бронирования
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

// Execute выполняет use case создания заявки
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("SubmitCancellationRequest: booking=%d, user=%d, type=%s",
		req.BookingID, req.UserID, req.RequestType)

	// 1. Валидация входных данных
	requestType := domain.RequestType(req.RequestType)
	switch requestType {
	case domain.RequestTypeCancellation, domain.RequestTypeReschedule:
	default:
		return nil, fmt.Errorf("%w: requestType must be cancellation or reschedule", ErrInvalidInput)
	}
	if requestType == domain.RequestTypeReschedule && req.PreferredBatchID == nil {
		return nil, fmt.Errorf("%w: preferredBatchId is required for reschedule", ErrInvalidInput)
	}
	if req.Reason != nil && len(*req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()
	var result *domain.CancellationRequest

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2. Бронирование должно существовать и принадлежать пользователю
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("SubmitCancellationRequest: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}
		if booking.UserID != req.UserID && !req.IsAdmin {
			uc.logger.Warn("SubmitCancellationRequest: user=%d does not own booking id=%d", req.UserID, req.BookingID)
			return ErrAccessDenied
		}

		// 3. Заявки принимаются только по оплаченным бронированиям
		if !statusAllowsRequest(booking.Status) {
			uc.logger.Warn("SubmitCancellationRequest: booking id=%d has status %s", req.BookingID, booking.Status)
			return ErrInvalidStatus
		}

		// 4. Одновременно может существовать только одна pending-заявка
		if booking.Request.IsPending() {
			uc.logger.Warn("SubmitCancellationRequest: booking id=%d already has a pending request", req.BookingID)
			return ErrDuplicateRequest
		}

		// 5. Для переноса проверяем целевой батч
		if requestType == domain.RequestTypeReschedule {
			if err := uc.checkPreferredBatch(txCtx, booking, *req.PreferredBatchID, now); err != nil {
				return err
			}
		}

		request := &domain.CancellationRequest{
			Type:             requestType,
			Status:           domain.RequestStatusPending,
			Reason:           req.Reason,
			PreferredBatchID: req.PreferredBatchID,
			CreatedAt:        &now,
		}

		// 6. Сохраняем заявку
		if err := uc.bookingRepo.CreateRequest(txCtx, req.BookingID, request); err != nil {
			uc.logger.Error("SubmitCancellationRequest: failed to create request for booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
		}

		result = request
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("SubmitCancellationRequest: created %s request for booking id=%d", result.Type, req.BookingID)
	return &Response{
		BookingID:        req.BookingID,
		RequestType:      string(result.Type),
		RequestStatus:    string(result.Status),
		Reason:           result.Reason,
		PreferredBatchID: result.PreferredBatchID,
		CreatedAt:        *result.CreatedAt,
	}, nil
}

// checkPreferredBatch проверяет целевой батч переноса: тот же трек, другой
// батч, не стартовал и имеет достаточно свободных мест
//
// Свободные места считаются движком пересчёта, а не кэшированным счётчиком
func (uc *UseCase) checkPreferredBatch(ctx context.Context, booking *domain.Booking, preferredID int64, now time.Time) error {
	if preferredID == booking.BatchID {
		return ErrSameBatch
	}

	batch, err := uc.trekRepo.GetBatch(ctx, booking.TrekID, preferredID)
	if err != nil {
		if errors.Is(err, trekRepo.ErrBatchNotFound) {
			uc.logger.Warn("SubmitCancellationRequest: batch id=%d is not part of trek id=%d", preferredID, booking.TrekID)
			return ErrBatchNotInTrek
		}
		uc.logger.Error("SubmitCancellationRequest: failed to get batch id=%d: %v", preferredID, err)
		return fmt.Errorf("%w: failed to get preferred batch: %v", ErrInternal, err)
	}

	if batch.HasStarted(now) {
		return ErrBatchStarted
	}

	free, err := uc.capacity.FreeSeats(ctx, booking.TrekID, preferredID)
	if err != nil {
		uc.logger.Error("SubmitCancellationRequest: failed to count free seats for batch id=%d: %v", preferredID, err)
		return fmt.Errorf("%w: failed to count free seats: %v", ErrInternal, err)
	}
	if free < booking.SeatsHeld() {
		uc.logger.Warn("SubmitCancellationRequest: batch id=%d has %d free seats, booking id=%d needs %d",
			preferredID, free, booking.ID, booking.SeatsHeld())
		return ErrBatchFull
	}

	return nil
}

func statusAllowsRequest(status domain.BookingStatus) bool {
	for _, s := range domain.CancellableRequestStatuses {
		if s == status {
			return true
		}
	}
	return false
}
