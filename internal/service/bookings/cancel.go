package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

// RefundPlan отложенное обращение к платёжному шлюзу
// Формируется внутри транзакции отмены и исполняется после её коммита,
// чтобы отказ шлюза никогда не откатывал уже применённую отмену
type RefundPlan struct {
	BookingID      int64
	PaymentID      string
	Amount         float64
	Reason         string
	ParticipantIDs []string
}

// Cancel выполняет полную отмену бронирования с расчётом возврата
//
// Отмена и возврат денег намеренно разделены: переходы состояния фиксируются
// в сериализуемой транзакции, обращение к шлюзу происходит после коммита.
func (s *Service) Cancel(ctx context.Context, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	var plan *RefundPlan
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var txErr error
		plan, txErr = s.CancelTx(txCtx, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.ProcessRefunds(ctx, plan)

	return s.GetByID(ctx, req.BookingID, req.UserID, req.IsAdmin)
}

// CancelTx применяет отмену внутри уже открытой транзакции
// Возвращает план возврата для исполнения после коммита (nil, если платить нечего)
func (s *Service) CancelTx(ctx context.Context, req *models.CancelBookingRequest) (*RefundPlan, error) {
	booking, err := s.loadBooking(ctx, "Cancel", req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != req.UserID && !req.IsAdmin {
		s.logger.Warn("Cancel: access denied for user=%d to booking id=%d", req.UserID, req.BookingID)
		return nil, ErrAccessDenied
	}

	batch, err := s.trekRepo.GetBatchForUpdate(ctx, booking.TrekID, booking.BatchID)
	if err != nil {
		return nil, s.mapTrekError("Cancel", err)
	}

	now := s.timeProvider.Now()
	if booking.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}
	if !booking.CanBeCancelled(batch.StartDate, now) {
		return nil, ErrTrekStarted
	}

	refundType, err := s.resolveRefundType(req.RefundType, req.CustomAmount, req.IsAdmin)
	if err != nil {
		return nil, err
	}

	active := booking.ActiveParticipants()
	seats := booking.NumberOfParticipants
	if booking.DetailsCollected() {
		seats = len(active)
	}
	if seats == 0 {
		return nil, ErrAlreadyCancelled
	}

	perShare := booking.TotalPrice / float64(seats)
	perRefund := domain.RefundAmount(perShare, batch.StartDate, now, refundType)
	if refundType == domain.RefundTypeCustom {
		perRefund = *req.CustomAmount / float64(seats)
	}
	totalRefund := perRefund * float64(seats)

	refundStatus := domain.RefundStatusSuccess
	if booking.HasPayment() && totalRefund > 0 {
		refundStatus = domain.RefundStatusProcessing
	}

	record := bookingRepo.RefundRecord{Status: refundStatus, Amount: totalRefund, Type: refundType}
	if err := s.bookingRepo.MarkCancelled(ctx, booking.ID, req.Reason, record); err != nil {
		return nil, fmt.Errorf("%w: Cancel - mark cancelled: %v", ErrInternal, err)
	}

	participantIDs := make([]string, 0, len(active))
	for _, p := range active {
		participantIDs = append(participantIDs, p.ID)
		perRecord := bookingRepo.RefundRecord{Status: refundStatus, Amount: perRefund, Type: refundType}
		if err := s.bookingRepo.CancelParticipant(ctx, p.ID, req.Reason, perRecord); err != nil {
			return nil, fmt.Errorf("%w: Cancel - cancel participant %s: %v", ErrInternal, p.ID, err)
		}
	}

	if _, err := s.capacity.Reconcile(ctx, booking.TrekID, booking.BatchID); err != nil {
		return nil, fmt.Errorf("%w: Cancel - reconcile: %v", ErrInternal, err)
	}

	s.logger.Info("Cancel: booking id=%d cancelled, refund=%.2f type=%s status=%s", booking.ID, totalRefund, refundType, refundStatus)

	if refundStatus != domain.RefundStatusProcessing {
		return nil, nil
	}
	return &RefundPlan{
		BookingID:      booking.ID,
		PaymentID:      *booking.PaymentID,
		Amount:         totalRefund,
		Reason:         req.Reason,
		ParticipantIDs: participantIDs,
	}, nil
}

// ProcessRefunds исполняет план возврата после коммита отмены
// Итог шлюза фиксируется на бронировании и участниках; ошибка не пробрасывается,
// отменённое бронирование остаётся отменённым при любом исходе
func (s *Service) ProcessRefunds(ctx context.Context, plan *RefundPlan) {
	if plan == nil {
		return
	}

	outcome := domain.RefundStatusSuccess
	if _, err := s.paymentClient.Refund(ctx, plan.PaymentID, plan.Amount, plan.Reason); err != nil {
		s.logger.Error("ProcessRefunds: gateway refund failed for booking id=%d: %v", plan.BookingID, err)
		outcome = domain.RefundStatusFailed
	}

	if err := s.bookingRepo.UpdateRefundStatus(ctx, plan.BookingID, outcome); err != nil {
		s.logger.Error("ProcessRefunds: failed to record refund status for booking id=%d: %v", plan.BookingID, err)
	}
	for _, pid := range plan.ParticipantIDs {
		if err := s.bookingRepo.UpdateParticipantRefundStatus(ctx, pid, outcome); err != nil {
			s.logger.Error("ProcessRefunds: failed to record refund status for participant %s: %v", pid, err)
		}
	}
}

// CancelParticipant отменяет одного участника бронирования
// Списывает долю участника из totalPrice; отмена последнего участника
// каскадно отменяет всё бронирование
func (s *Service) CancelParticipant(ctx context.Context, req *models.CancelParticipantRequest) (*models.BookingResponse, error) {
	var plan *RefundPlan
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.loadBooking(txCtx, "CancelParticipant", req.BookingID)
		if err != nil {
			return err
		}

		if booking.UserID != req.UserID && !req.IsAdmin {
			return ErrAccessDenied
		}

		batch, err := s.trekRepo.GetBatchForUpdate(txCtx, booking.TrekID, booking.BatchID)
		if err != nil {
			return s.mapTrekError("CancelParticipant", err)
		}

		now := s.timeProvider.Now()
		if booking.IsCancelled() {
			return ErrAlreadyCancelled
		}
		if !booking.CanBeCancelled(batch.StartDate, now) {
			return ErrTrekStarted
		}

		var target *domain.Participant
		for _, p := range booking.Participants {
			if p.ID == req.ParticipantID {
				target = p
				break
			}
		}
		if target == nil {
			return ErrParticipantNotFound
		}
		if target.IsCancelled {
			return ErrAlreadyCancelled
		}

		// Не-админ не может назначить произвольную сумму, тип откатывается к auto
		refundType := domain.RefundType(req.RefundType)
		if refundType == "" {
			refundType = domain.RefundTypeAuto
		}
		if refundType == domain.RefundTypeCustom && (!req.IsAdmin || req.CustomAmount == nil) {
			refundType = domain.RefundTypeAuto
		}

		active := booking.ActiveParticipants()
		perShare := booking.TotalPrice / float64(len(active))
		refund := domain.RefundAmount(perShare, batch.StartDate, now, refundType)
		if refundType == domain.RefundTypeCustom {
			refund = *req.CustomAmount
		}

		refundStatus := domain.RefundStatusSuccess
		if booking.HasPayment() && refund > 0 {
			refundStatus = domain.RefundStatusProcessing
		}

		record := bookingRepo.RefundRecord{Status: refundStatus, Amount: refund, Type: refundType}
		if err := s.bookingRepo.CancelParticipant(txCtx, target.ID, req.Reason, record); err != nil {
			if errors.Is(err, bookingRepo.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return fmt.Errorf("%w: CancelParticipant - repository error: %v", ErrInternal, err)
		}

		remaining := len(active) - 1
		if remaining == 0 {
			// Каскад в полную отмену
			if err := s.bookingRepo.MarkCancelled(txCtx, booking.ID, req.Reason, record); err != nil {
				return fmt.Errorf("%w: CancelParticipant - cascade cancel: %v", ErrInternal, err)
			}
		} else {
			if err := s.bookingRepo.UpdateSeatState(txCtx, booking.ID, remaining, booking.TotalPrice-perShare); err != nil {
				return fmt.Errorf("%w: CancelParticipant - update seat state: %v", ErrInternal, err)
			}
		}

		if _, err := s.capacity.Reconcile(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return fmt.Errorf("%w: CancelParticipant - reconcile: %v", ErrInternal, err)
		}

		s.logger.Info("CancelParticipant: booking id=%d participant=%s refund=%.2f remaining=%d", booking.ID, target.ID, refund, remaining)

		if refundStatus == domain.RefundStatusProcessing {
			plan = &RefundPlan{
				BookingID:      booking.ID,
				PaymentID:      *booking.PaymentID,
				Amount:         refund,
				Reason:         req.Reason,
				ParticipantIDs: []string{target.ID},
			}
			if remaining > 0 {
				// Статус бронирования не меняем, итог шлюза пишем только на участника
				plan.BookingID = 0
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if plan != nil {
		bookingPlan := *plan
		if bookingPlan.BookingID == 0 {
			s.processParticipantRefund(ctx, &bookingPlan)
		} else {
			s.ProcessRefunds(ctx, &bookingPlan)
		}
	}

	return s.GetByID(ctx, req.BookingID, req.UserID, req.IsAdmin)
}

// processParticipantRefund исполняет возврат, затрагивающий только участника
func (s *Service) processParticipantRefund(ctx context.Context, plan *RefundPlan) {
	outcome := domain.RefundStatusSuccess
	if _, err := s.paymentClient.Refund(ctx, plan.PaymentID, plan.Amount, plan.Reason); err != nil {
		s.logger.Error("processParticipantRefund: gateway refund failed: %v", err)
		outcome = domain.RefundStatusFailed
	}
	for _, pid := range plan.ParticipantIDs {
		if err := s.bookingRepo.UpdateParticipantRefundStatus(ctx, pid, outcome); err != nil {
			s.logger.Error("processParticipantRefund: failed to record refund status for participant %s: %v", pid, err)
		}
	}
}

// RestoreParticipant восстанавливает отменённого участника
// Место проверяется заново по пересчитанной занятости батча, восстановление
// в заполненный батч отклоняется
func (s *Service) RestoreParticipant(ctx context.Context, bookingID int64, participantID string, userID int64, isAdmin bool) (*models.BookingResponse, error) {
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.loadBooking(txCtx, "RestoreParticipant", bookingID)
		if err != nil {
			return err
		}

		if booking.UserID != userID && !isAdmin {
			return ErrAccessDenied
		}
		if booking.IsCancelled() {
			return ErrAlreadyCancelled
		}

		batch, err := s.trekRepo.GetBatchForUpdate(txCtx, booking.TrekID, booking.BatchID)
		if err != nil {
			return s.mapTrekError("RestoreParticipant", err)
		}
		if batch.HasStarted(s.timeProvider.Now()) {
			return ErrTrekStarted
		}

		var target *domain.Participant
		for _, p := range booking.Participants {
			if p.ID == participantID {
				target = p
				break
			}
		}
		if target == nil {
			return ErrParticipantNotFound
		}
		if !target.IsCancelled {
			return ErrParticipantNotCancelled
		}

		used, err := s.capacity.SeatsUsed(txCtx, booking.BatchID)
		if err != nil {
			return fmt.Errorf("%w: RestoreParticipant - seats used: %v", ErrInternal, err)
		}
		if used+1 > batch.SellableCapacity() {
			s.logger.Warn("RestoreParticipant: batch=%d is full, used=%d", booking.BatchID, used)
			return ErrBatchFull
		}

		newCount := len(booking.ActiveParticipants()) + 1

		if err := s.bookingRepo.RestoreParticipant(txCtx, participantID); err != nil {
			if errors.Is(err, bookingRepo.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return fmt.Errorf("%w: RestoreParticipant - repository error: %v", ErrInternal, err)
		}
		if err := s.bookingRepo.UpdateSeatState(txCtx, bookingID, newCount, booking.TotalPrice+batch.Price); err != nil {
			return fmt.Errorf("%w: RestoreParticipant - update seat state: %v", ErrInternal, err)
		}

		if _, err := s.capacity.Reconcile(txCtx, booking.TrekID, booking.BatchID); err != nil {
			return fmt.Errorf("%w: RestoreParticipant - reconcile: %v", ErrInternal, err)
		}

		s.logger.Info("RestoreParticipant: booking id=%d participant=%s restored", bookingID, participantID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, bookingID, userID, isAdmin)
}

// resolveRefundType валидирует запрошенный тип возврата
func (s *Service) resolveRefundType(requested string, customAmount *float64, isAdmin bool) (domain.RefundType, error) {
	switch domain.RefundType(requested) {
	case "", domain.RefundTypeAuto:
		return domain.RefundTypeAuto, nil
	case domain.RefundTypeFull:
		if !isAdmin {
			return domain.RefundTypeAuto, nil
		}
		return domain.RefundTypeFull, nil
	case domain.RefundTypeCustom:
		if !isAdmin {
			return domain.RefundTypeAuto, nil
		}
		if customAmount == nil || *customAmount < 0 {
			return "", fmt.Errorf("%w: custom refund requires a non-negative amount", ErrInvalidInput)
		}
		return domain.RefundTypeCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown refund type %q", ErrInvalidInput, requested)
	}
}
