package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/invoiceservice"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

// Service сервис жизненного цикла бронирований
type Service struct {
	bookingRepo   BookingRepository
	trekRepo      TrekRepository
	capacity      CapacityService
	paymentClient PaymentGatewayClient
	invoiceClient InvoiceServiceClient
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	trekRepo TrekRepository,
	capacity CapacityService,
	paymentClient PaymentGatewayClient,
	invoiceClient InvoiceServiceClient,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:   bookingRepo,
		trekRepo:      trekRepo,
		capacity:      capacity,
		paymentClient: paymentClient,
		invoiceClient: invoiceClient,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// GetByID получает бронирование по ID со срезами трека и батча
// Пользователь видит только своё бронирование, админ - любое
func (s *Service) GetByID(ctx context.Context, id int64, userID int64, isAdmin bool) (*models.BookingResponse, error) {
	booking, err := s.loadBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID && !isAdmin {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	resp := models.FromDomainBooking(booking)

	// Срезы для отображения, их отсутствие не ломает ответ
	trek, err := s.trekRepo.GetByID(ctx, booking.TrekID)
	if err != nil {
		s.logger.Warn("GetByID: trek snapshot unavailable for booking id=%d: %v", id, err)
		trek = nil
	}
	batch, err := s.trekRepo.GetBatch(ctx, booking.TrekID, booking.BatchID)
	if err != nil {
		s.logger.Warn("GetByID: batch snapshot unavailable for booking id=%d: %v", id, err)
		batch = nil
	}

	return resp.WithSnapshots(trek, batch), nil
}

// GetUserBookings получает историю бронирований пользователя
// Брошенные попытки оплаты (pending/pending_payment) не попадают в выдачу
func (s *Service) GetUserBookings(ctx context.Context, userID int64) (*models.BookingListResponse, error) {
	bookings, err := s.bookingRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings, int64(len(bookings))), nil
}

// GetAdminBookings получает страницу бронирований по админскому фильтру
// Явный запрос статусов pending/pending_payment возвращает пустую страницу:
// брошенные попытки оплаты не считаются бронированиями
func (s *Service) GetAdminBookings(ctx context.Context, req *models.GetAdminBookingsRequest) (*models.BookingListResponse, error) {
	filter := bookingRepo.AdminFilter{
		TrekID:    req.TrekID,
		BatchID:   req.BatchID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Search:    req.Search,
	}

	if req.Status != nil {
		status := domain.BookingStatus(*req.Status)
		if !domain.ValidStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, *req.Status)
		}
		if status == domain.StatusPending || status == domain.StatusPendingPayment {
			return &models.BookingListResponse{Bookings: []models.BookingResponse{}}, nil
		}
		filter.Status = &status
	}

	pageSize := req.PageSize
	if pageSize == 0 || pageSize > domain.MaxPageSize {
		pageSize = domain.DefaultPageSize
	}
	page := req.Page
	if page == 0 {
		page = 1
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	bookings, total, err := s.bookingRepo.ListAdmin(ctx, filter)
	if err != nil {
		s.logger.Error("GetAdminBookings: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetAdminBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings, total), nil
}

// UpdateStatus выполняет админский перевод статуса бронирования
// Перевод в capacity-статус пересчитывает занятость батча в той же транзакции.
// Подтверждение дополнительно выпускает инвойс, его отказ не блокирует перевод.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus domain.BookingStatus) (*models.BookingResponse, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, newStatus)
	}

	var updated *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.loadBooking(txCtx, "UpdateStatus", id)
		if err != nil {
			return err
		}

		if _, err := s.trekRepo.GetBatchForUpdate(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return s.mapTrekError("UpdateStatus", err)
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, id, newStatus); err != nil {
			return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
		}

		if _, err := s.capacity.Reconcile(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return fmt.Errorf("%w: UpdateStatus - reconcile: %v", ErrInternal, err)
		}

		booking.Status = newStatus
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("UpdateStatus: booking id=%d moved to status=%s", id, newStatus)

	if newStatus == domain.StatusConfirmed {
		s.generateInvoice(ctx, updated)
	}

	return models.FromDomainBooking(updated), nil
}

// SubmitParticipants принимает анкеты участников после оплаты
// Число анкет должно совпадать с заявленным числом мест. Для полностью
// оплаченного бронирования подача анкет подтверждает его.
func (s *Service) SubmitParticipants(ctx context.Context, bookingID int64, userID int64, isAdmin bool, inputs []models.ParticipantInput) (*models.BookingResponse, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: participants list is empty", ErrInvalidInput)
	}
	for _, in := range inputs {
		if in.Name == "" || in.Age <= 0 || in.Age > domain.MaxParticipantAge {
			return nil, fmt.Errorf("%w: invalid participant entry", ErrInvalidInput)
		}
	}

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.loadBooking(txCtx, "SubmitParticipants", bookingID)
		if err != nil {
			return err
		}

		if booking.UserID != userID && !isAdmin {
			return ErrAccessDenied
		}

		switch booking.Status {
		case domain.StatusPaymentCompleted, domain.StatusPaymentConfirmedPartial, domain.StatusConfirmed:
		default:
			return fmt.Errorf("%w: participants can be submitted only after payment", ErrInvalidInput)
		}

		if len(inputs) != booking.NumberOfParticipants {
			return fmt.Errorf("%w: expected %d participants, got %d", ErrInvalidInput, booking.NumberOfParticipants, len(inputs))
		}

		if _, err := s.trekRepo.GetBatchForUpdate(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return s.mapTrekError("SubmitParticipants", err)
		}

		participants := make([]*domain.Participant, 0, len(inputs))
		for _, in := range inputs {
			participants = append(participants, &domain.Participant{
				ID:    uuid.NewString(),
				Name:  in.Name,
				Age:   in.Age,
				Phone: in.Phone,
			})
		}

		if err := s.bookingRepo.ReplaceParticipants(txCtx, bookingID, participants); err != nil {
			return fmt.Errorf("%w: SubmitParticipants - repository error: %v", ErrInternal, err)
		}

		if booking.Status == domain.StatusPaymentCompleted {
			if err := s.bookingRepo.UpdateStatus(txCtx, bookingID, domain.StatusConfirmed); err != nil {
				return fmt.Errorf("%w: SubmitParticipants - promote status: %v", ErrInternal, err)
			}
		}

		if _, err := s.capacity.Reconcile(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return fmt.Errorf("%w: SubmitParticipants - reconcile: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SubmitParticipants: booking id=%d received %d participants", bookingID, len(inputs))
	return s.GetByID(ctx, bookingID, userID, isAdmin)
}

// generateInvoice выпускает инвойс по подтверждённому бронированию
// Отказ коллаборатора логируется и не влияет на результат операции
func (s *Service) generateInvoice(ctx context.Context, booking *domain.Booking) {
	_, err := s.invoiceClient.GenerateInvoice(ctx, invoiceservice.InvoiceRequest{
		BookingID:    booking.ID,
		UserID:       booking.UserID,
		TrekID:       booking.TrekID,
		Amount:       booking.TotalPrice,
		ContactName:  booking.ContactName,
		ContactEmail: booking.ContactEmail,
	})
	if err != nil {
		s.logger.Error("generateInvoice: failed for booking id=%d: %v", booking.ID, err)
	}
}

func (s *Service) loadBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func (s *Service) mapTrekError(op string, err error) error {
	switch {
	case errors.Is(err, trekRepo.ErrTrekNotFound):
		return ErrTrekNotFound
	case errors.Is(err, trekRepo.ErrBatchNotFound):
		return ErrBatchNotFound
	default:
		return fmt.Errorf("%w: %s - trek repository error: %v", ErrInternal, op, err)
	}
}
