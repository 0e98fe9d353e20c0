package calculate_refund

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

const (
	msgInvalidBookingID    = "некорректный ID бронирования"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgUnauthorized        = "требуется аутентификация"
	msgBookingNotFound     = "бронирование не найдено"
	msgParticipantNotFound = "участник не найден"
	msgForbidden           = "доступ запрещен"
	msgInvalidInput        = "некорректные параметры расчёта"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CalculateRefundRequest HTTP request model
type CalculateRefundRequest struct {
	Scope          string   `json:"scope"` // entire | individual
	ParticipantIDs []string `json:"participantIds,omitempty"`
	RefundType     *string  `json:"refundType,omitempty"`
}

// Handle POST /api/v1/bookings/{bookingId}/calculate-refund
//
// Расчёт использует ту же дневную арифметику, что и отмена: показанная
// сумма совпадает с той, что будет начислена при реальной отмене
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/calculate-refund - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req CalculateRefundRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/calculate-refund - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq := &models.CalculateRefundRequest{
		BookingID:      bookingID,
		UserID:         userID,
		IsAdmin:        middleware.IsAdmin(r.Context()),
		Scope:          req.Scope,
		ParticipantIDs: req.ParticipantIDs,
	}
	if req.RefundType != nil {
		serviceReq.RefundType = *req.RefundType
	}

	resp, err := h.service.CalculateRefund(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrParticipantNotFound):
			handlers.RespondNotFound(w, msgParticipantNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings/{id}/calculate-refund - Failed to calculate refund: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
