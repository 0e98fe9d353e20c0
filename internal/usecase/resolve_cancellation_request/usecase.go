package resolve_cancellation_request

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
	bookingmodels "github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-TrekBookingService/internal/usecase/shift_batch"
)

// UseCase use case для админского решения по заявке на отмену или перенос
//
// Одобрение исполняет само действие: отмена или перенос выполняются в той же
// сериализуемой транзакции, что и смена статуса заявки. Отдельного вызова
// Cancel после одобрения не требуется
type UseCase struct {
	bookingRepo   BookingRepository
	cancelService CancellationService
	shifter       BatchShifter
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	cancelService CancellationService,
	shifter BatchShifter,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		cancelService: cancelService,
		shifter:       shifter,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет use case решения по заявке
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ResolveCancellationRequest: booking=%d, admin=%d, approve=%t",
		req.BookingID, req.AdminID, req.Approve)

	// 1. Валидация входных данных
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.AdminResponse != nil && len(*req.AdminResponse) > domain.MaxAdminResponseLength {
		return nil, fmt.Errorf("%w: adminResponse is too long", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	var (
		result *Response
		plan   *bookings.RefundPlan
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2. По бронированию должна быть pending-заявка
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("ResolveCancellationRequest: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}
		if !booking.Request.IsPending() {
			uc.logger.Warn("ResolveCancellationRequest: booking id=%d has no pending request", req.BookingID)
			return ErrNoPendingRequest
		}

		request := booking.Request
		result = &Response{
			BookingID:     req.BookingID,
			RequestType:   string(request.Type),
			AdminResponse: req.AdminResponse,
			ResolvedAt:    now,
		}

		// 3. Отклонение меняет только статус заявки
		if !req.Approve {
			result.RequestStatus = string(domain.RequestStatusRejected)
			if err := uc.bookingRepo.ResolveRequest(txCtx, req.BookingID, domain.RequestStatusRejected, req.AdminResponse, now); err != nil {
				uc.logger.Error("ResolveCancellationRequest: failed to reject request for booking id=%d: %v", req.BookingID, err)
				return fmt.Errorf("%w: failed to resolve request: %v", ErrInternal, err)
			}
			return nil
		}

		// 4. Одобрение исполняет действие заявки в этой же транзакции
		switch request.Type {
		case domain.RequestTypeCancellation:
			plan, err = uc.approveCancellation(txCtx, booking, request)
		case domain.RequestTypeReschedule:
			err = uc.approveReschedule(txCtx, booking, request, result)
		default:
			uc.logger.Error("ResolveCancellationRequest: booking id=%d has unknown request type %q", req.BookingID, request.Type)
			err = fmt.Errorf("%w: unknown request type %q", ErrInternal, request.Type)
		}
		if err != nil {
			return err
		}

		// 5. Фиксируем решение
		result.RequestStatus = string(domain.RequestStatusApproved)
		if err := uc.bookingRepo.ResolveRequest(txCtx, req.BookingID, domain.RequestStatusApproved, req.AdminResponse, now); err != nil {
			uc.logger.Error("ResolveCancellationRequest: failed to approve request for booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to resolve request: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// 6. Возвраты исполняются после коммита, их сбой не откатывает решение
	if plan != nil {
		uc.cancelService.ProcessRefunds(ctx, plan)
	}

	uc.logger.Info("ResolveCancellationRequest: booking id=%d request %s", req.BookingID, result.RequestStatus)
	return result, nil
}

func (uc *UseCase) approveCancellation(ctx context.Context, booking *domain.Booking, request *domain.CancellationRequest) (*bookings.RefundPlan, error) {
	reason := "cancellation request approved"
	if request.Reason != nil {
		reason = *request.Reason
	}

	plan, err := uc.cancelService.CancelTx(ctx, &bookingmodels.CancelBookingRequest{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		IsAdmin:    true,
		Reason:     reason,
		RefundType: string(domain.RefundTypeAuto),
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAlreadyCancelled):
			return nil, ErrAlreadyCancelled
		case errors.Is(err, bookings.ErrTrekStarted):
			return nil, ErrTrekStarted
		case errors.Is(err, bookings.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		default:
			uc.logger.Error("ResolveCancellationRequest: cancel failed for booking id=%d: %v", booking.ID, err)
			return nil, fmt.Errorf("%w: cancel failed: %v", ErrInternal, err)
		}
	}
	return plan, nil
}

func (uc *UseCase) approveReschedule(ctx context.Context, booking *domain.Booking, request *domain.CancellationRequest, result *Response) error {
	if request.PreferredBatchID == nil {
		uc.logger.Error("ResolveCancellationRequest: reschedule request for booking id=%d has no preferred batch", booking.ID)
		return fmt.Errorf("%w: reschedule request has no preferred batch", ErrInternal)
	}

	shifted, err := uc.shifter.ExecuteTx(ctx, &shift_batch.Request{
		BookingID:     booking.ID,
		TargetBatchID: *request.PreferredBatchID,
	})
	if err != nil {
		switch {
		case errors.Is(err, shift_batch.ErrBatchFull):
			return ErrBatchFull
		case errors.Is(err, shift_batch.ErrBatchNotInTrek):
			return ErrBatchNotInTrek
		case errors.Is(err, shift_batch.ErrBatchStarted):
			return ErrBatchStarted
		case errors.Is(err, shift_batch.ErrSameBatch), errors.Is(err, shift_batch.ErrInvalidStatus):
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case errors.Is(err, shift_batch.ErrBookingNotFound):
			return ErrBookingNotFound
		default:
			uc.logger.Error("ResolveCancellationRequest: transfer failed for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: transfer failed: %v", ErrInternal, err)
		}
	}

	result.NewBatchID = &shifted.NewBatchID
	return nil
}
