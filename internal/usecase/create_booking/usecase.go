package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	trekRepo     TrekRepository
	capacity     CapacityService
	txManager    TransactionManager
	timeProvider TimeProvider
	sessionTTL   time.Duration
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	trekRepo TrekRepository,
	capacity CapacityService,
	txManager TransactionManager,
	sessionTTL time.Duration,
	logger Logger,
) *UseCase {
	if sessionTTL <= 0 {
		sessionTTL = domain.DefaultSessionTTLMinutes * time.Minute
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		trekRepo:     trekRepo,
		capacity:     capacity,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
//
// Допуск на места выполняется в сериализуемой транзакции с блокировкой батча:
// занятость пересчитывается по бронированиям, кэшированный счётчик батча
// никогда не используется для контроля вместимости
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, trek=%d, batch=%d, participants=%d, mode=%s",
		req.UserID, req.TrekID, req.BatchID, req.NumberOfParticipants, req.PaymentMode)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Трек должен существовать и продаваться
	trek, err := uc.trekRepo.GetByID(ctx, req.TrekID)
	if err != nil {
		if errors.Is(err, trekRepo.ErrTrekNotFound) {
			uc.logger.Warn("CreateBooking: trek id=%d not found", req.TrekID)
			return nil, ErrTrekNotFound
		}
		uc.logger.Error("CreateBooking: failed to get trek id=%d: %v", req.TrekID, err)
		return nil, fmt.Errorf("%w: failed to get trek: %v", ErrInternal, err)
	}
	if !trek.Enabled {
		uc.logger.Warn("CreateBooking: trek id=%d is disabled", req.TrekID)
		return nil, ErrTrekDisabled
	}

	var result *domain.Booking

	// 3. Допуск в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Блокируем батч, чтобы конкурентные допуски выстроились в очередь
		batch, err := uc.trekRepo.GetBatchForUpdate(txCtx, req.TrekID, req.BatchID)
		if err != nil {
			if errors.Is(err, trekRepo.ErrBatchNotFound) {
				uc.logger.Warn("CreateBooking: batch id=%d not found in trek id=%d", req.BatchID, req.TrekID)
				return ErrBatchNotFound
			}
			uc.logger.Error("CreateBooking: failed to lock batch id=%d: %v", req.BatchID, err)
			return fmt.Errorf("%w: failed to lock batch: %v", ErrInternal, err)
		}

		if batch.HasStarted(now) {
			uc.logger.Warn("CreateBooking: batch id=%d has already started", req.BatchID)
			return ErrBatchStarted
		}

		totalPrice := batch.Price * float64(req.NumberOfParticipants)

		// 3.2. Рассрочка: политика трека и окно финального платежа
		var partial *domain.PartialPaymentDetails
		if domain.PaymentMode(req.PaymentMode) == domain.PaymentModePartial {
			partial, err = uc.buildPartialDetails(req, trek, batch, totalPrice, now)
			if err != nil {
				return err
			}
		}

		// 3.3. Занятость считаем по авторитетному источнику
		seatsUsed, err := uc.capacity.SeatsUsed(txCtx, req.BatchID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to count seats for batch id=%d: %v", req.BatchID, err)
			return fmt.Errorf("%w: failed to count seats: %v", ErrInternal, err)
		}

		if seatsUsed+req.NumberOfParticipants > batch.SellableCapacity() {
			uc.logger.Warn("CreateBooking: batch id=%d is full, used=%d, requested=%d, capacity=%d",
				req.BatchID, seatsUsed, req.NumberOfParticipants, batch.SellableCapacity())
			return ErrBatchFull
		}

		status := domain.StatusPendingPayment
		var session *domain.BookingSession
		if trek.IsCustom {
			// Кастомные/оффлайн треки бронируются сразу подтверждёнными,
			// платёжная сессия им не нужна
			status = domain.StatusConfirmed
		} else {
			session = &domain.BookingSession{
				Token:     uuid.NewString(),
				ExpiresAt: now.Add(uc.sessionTTL),
			}
		}

		// 3.4. Дедупликация брошенной попытки оплаты с живой сессией
		existing, err := uc.bookingRepo.FindPendingByUserTrekBatch(txCtx, req.UserID, req.TrekID, req.BatchID)
		if err != nil && !errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Error("CreateBooking: failed to find pending booking: %v", err)
			return fmt.Errorf("%w: failed to find pending booking: %v", ErrInternal, err)
		}

		if existing != nil && existing.Session.IsLive(now) && status == domain.StatusPendingPayment {
			existing.NumberOfParticipants = req.NumberOfParticipants
			existing.TotalPrice = totalPrice
			existing.PaymentMode = domain.PaymentMode(req.PaymentMode)
			existing.PromoCode = req.PromoCode
			existing.ContactName = req.ContactName
			existing.ContactEmail = req.ContactEmail
			existing.Partial = partial
			existing.Session = session

			if err := uc.bookingRepo.UpdatePending(txCtx, existing); err != nil {
				uc.logger.Error("CreateBooking: failed to update pending booking id=%d: %v", existing.ID, err)
				return fmt.Errorf("%w: failed to update pending booking: %v", ErrInternal, err)
			}

			uc.logger.Info("CreateBooking: reused pending booking id=%d for user=%d", existing.ID, req.UserID)
			result = existing
			return nil
		}

		booking := &domain.Booking{
			UserID:               req.UserID,
			TrekID:               req.TrekID,
			BatchID:              req.BatchID,
			NumberOfParticipants: req.NumberOfParticipants,
			TotalPrice:           totalPrice,
			Status:               status,
			PaymentMode:          domain.PaymentMode(req.PaymentMode),
			PromoCode:            req.PromoCode,
			ContactName:          req.ContactName,
			ContactEmail:         req.ContactEmail,
			Partial:              partial,
			Session:              session,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 3.5. Подтверждённое бронирование сразу занимает места
		if created.IsCounted() {
			if _, err := uc.capacity.Reconcile(txCtx, req.TrekID, req.BatchID); err != nil {
				uc.logger.Error("CreateBooking: reconcile failed for batch id=%d: %v", req.BatchID, err)
				return fmt.Errorf("%w: reconcile failed: %v", ErrInternal, err)
			}
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d status=%s", result.ID, result.Status)
	return buildResponse(result), nil
}

// buildPartialDetails считает параметры рассрочки по политике трека
func (uc *UseCase) buildPartialDetails(
	req *Request,
	trek *domain.Trek,
	batch *domain.Batch,
	totalPrice float64,
	now time.Time,
) (*domain.PartialPaymentDetails, error) {
	policy := trek.PartialPayment
	if !policy.Enabled {
		uc.logger.Warn("CreateBooking: partial payment disabled for trek id=%d", trek.ID)
		return nil, ErrPartialPaymentDisabled
	}

	days := domain.DaysUntilDeparture(batch.StartDate, now)
	if days <= policy.FinalPaymentDueDays {
		uc.logger.Warn("CreateBooking: %d days to departure is inside the final payment window (%d)",
			days, policy.FinalPaymentDueDays)
		return nil, ErrFinalPaymentWindow
	}

	initial := policy.InitialAmount(totalPrice, req.NumberOfParticipants)
	if req.ClientInitialAmount != nil && !amountsMatch(*req.ClientInitialAmount, initial) {
		// Расхождение сумм трактуем как попытку подмены и пишем с контекстом
		uc.logger.Error("CreateBooking: SECURITY initial amount mismatch: user=%d, trek=%d, client=%.2f, server=%.2f",
			req.UserID, trek.ID, *req.ClientInitialAmount, initial)
		return nil, ErrAmountMismatch
	}

	due := batch.StartDate.AddDate(0, 0, -policy.FinalPaymentDueDays)
	return &domain.PartialPaymentDetails{
		InitialAmount:       initial,
		RemainingAmount:     totalPrice - initial,
		FinalPaymentDueDate: &due,
	}, nil
}

func buildResponse(b *domain.Booking) *Response {
	resp := &Response{
		ID:                   b.ID,
		UserID:               b.UserID,
		TrekID:               b.TrekID,
		BatchID:              b.BatchID,
		NumberOfParticipants: b.NumberOfParticipants,
		TotalPrice:           b.TotalPrice,
		Status:               string(b.Status),
		PaymentMode:          string(b.PaymentMode),
		PromoCode:            b.PromoCode,
		ContactName:          b.ContactName,
		ContactEmail:         b.ContactEmail,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}

	if b.Partial != nil {
		resp.InitialAmount = &b.Partial.InitialAmount
		resp.RemainingAmount = &b.Partial.RemainingAmount
		resp.FinalPaymentDueDate = b.Partial.FinalPaymentDueDate
	}

	if b.Session != nil {
		resp.SessionToken = &b.Session.Token
		resp.SessionExpiresAt = &b.Session.ExpiresAt
	}

	return resp
}
