package bookings

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

// Область применения расчёта возврата
const (
	ScopeEntire     = "entire"
	ScopeIndividual = "individual"
)

// CalculateRefund считает возврат без изменения состояния
// Дневная арифметика совпадает с Cancel один в один, чтобы предварительная
// оценка никогда не расходилась с фактическим возвратом
func (s *Service) CalculateRefund(ctx context.Context, req *models.CalculateRefundRequest) (*models.RefundPreviewResponse, error) {
	booking, err := s.loadBooking(ctx, "CalculateRefund", req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != req.UserID && !req.IsAdmin {
		return nil, ErrAccessDenied
	}
	if booking.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}

	batch, err := s.trekRepo.GetBatch(ctx, booking.TrekID, booking.BatchID)
	if err != nil {
		return nil, s.mapTrekError("CalculateRefund", err)
	}

	refundType, err := s.resolveRefundType(req.RefundType, nil, req.IsAdmin)
	if err != nil {
		return nil, err
	}
	if refundType == domain.RefundTypeCustom {
		return nil, fmt.Errorf("%w: custom refunds have no preview", ErrInvalidInput)
	}

	now := s.timeProvider.Now()
	days := domain.DaysUntilDeparture(batch.StartDate, now)

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

	resp := &models.RefundPreviewResponse{
		BookingID:         booking.ID,
		RefundType:        string(refundType),
		DaysToDeparture:   days,
		PolicyDescription: domain.RefundTierDescription(days),
	}

	switch req.Scope {
	case "", ScopeEntire:
		resp.TotalRefund = perRefund * float64(seats)
		for _, p := range active {
			resp.Breakdown = append(resp.Breakdown, models.ParticipantRefund{ParticipantID: p.ID, Amount: perRefund})
		}
	case ScopeIndividual:
		if len(req.ParticipantIDs) == 0 {
			return nil, fmt.Errorf("%w: individual scope requires participant ids", ErrInvalidInput)
		}
		activeByID := make(map[string]*domain.Participant, len(active))
		for _, p := range active {
			activeByID[p.ID] = p
		}
		for _, pid := range req.ParticipantIDs {
			if _, ok := activeByID[pid]; !ok {
				return nil, ErrParticipantNotFound
			}
			resp.TotalRefund += perRefund
			resp.Breakdown = append(resp.Breakdown, models.ParticipantRefund{ParticipantID: pid, Amount: perRefund})
		}
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, req.Scope)
	}

	return resp, nil
}
