package restore_participant

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID    = "некорректный ID бронирования"
	msgUnauthorized        = "требуется аутентификация"
	msgBookingNotFound     = "бронирование не найдено"
	msgParticipantNotFound = "участник не найден"
	msgForbidden           = "доступ запрещен"
	msgNotCancelled        = "участник не был отменен"
	msgBatchFull           = "недостаточно свободных мест для восстановления"
	msgTrekStarted         = "трек уже стартовал, восстановление невозможно"
	msgBookingCancelled    = "бронирование отменено"
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

// Handle PATCH /api/v1/bookings/{bookingId}/participants/{participantId}/restore
//
// Восстановление повторно проверяет вместимость батча: освободившееся место
// могло быть продано другому бронированию
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/participants/{pid}/restore - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}
	participantID := vars["participantId"]

	resp, err := h.service.RestoreParticipant(r.Context(), bookingID, participantID, userID, middleware.IsAdmin(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrParticipantNotFound):
			handlers.RespondNotFound(w, msgParticipantNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/participants/{pid}/restore - Access denied: booking_id=%d, user_id=%d",
				bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrParticipantNotCancelled):
			handlers.RespondBadRequest(w, msgNotCancelled)

		case errors.Is(err, bookings.ErrBatchFull):
			h.logger.Warn("PATCH /bookings/{id}/participants/{pid}/restore - Batch full: booking_id=%d, participant_id=%s",
				bookingID, participantID)
			handlers.RespondConflict(w, msgBatchFull)

		case errors.Is(err, bookings.ErrAlreadyCancelled):
			handlers.RespondConflict(w, msgBookingCancelled)

		case errors.Is(err, bookings.ErrTrekStarted):
			handlers.RespondBadRequest(w, msgTrekStarted)

		default:
			h.logger.Error("PATCH /bookings/{id}/participants/{pid}/restore - Failed to restore participant: booking_id=%d, participant_id=%s, error=%v",
				bookingID, participantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/participants/{pid}/restore - Participant restored: booking_id=%d, participant_id=%s",
		bookingID, participantID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
