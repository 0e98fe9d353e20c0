package cancel_participant

import (
	"errors"
	"io"
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
	msgAlreadyCancelled    = "бронирование уже отменено"
	msgTrekStarted         = "трек уже стартовал, отмена невозможна"
	msgInvalidInput        = "некорректные параметры возврата"
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

// CancelParticipantRequest HTTP request model
type CancelParticipantRequest struct {
	Reason       *string  `json:"reason,omitempty"`
	RefundType   *string  `json:"refundType,omitempty"`
	CustomAmount *float64 `json:"customAmount,omitempty"`
}

// Handle PATCH /api/v1/bookings/{bookingId}/participants/{participantId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/participants/{pid}/cancel - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}
	participantID := vars["participantId"]

	var req CancelParticipantRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("PATCH /bookings/{id}/participants/{pid}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq := &models.CancelParticipantRequest{
		BookingID:     bookingID,
		ParticipantID: participantID,
		UserID:        userID,
		IsAdmin:       middleware.IsAdmin(r.Context()),
		CustomAmount:  req.CustomAmount,
	}
	if req.Reason != nil {
		serviceReq.Reason = *req.Reason
	}
	if req.RefundType != nil {
		serviceReq.RefundType = *req.RefundType
	}

	resp, err := h.service.CancelParticipant(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrParticipantNotFound):
			handlers.RespondNotFound(w, msgParticipantNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/participants/{pid}/cancel - Access denied: booking_id=%d, user_id=%d",
				bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrAlreadyCancelled):
			handlers.RespondConflict(w, msgAlreadyCancelled)

		case errors.Is(err, bookings.ErrTrekStarted):
			handlers.RespondBadRequest(w, msgTrekStarted)

		case errors.Is(err, bookings.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /bookings/{id}/participants/{pid}/cancel - Failed to cancel participant: booking_id=%d, participant_id=%s, error=%v",
				bookingID, participantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/participants/{pid}/cancel - Participant cancelled: booking_id=%d, participant_id=%s",
		bookingID, participantID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
