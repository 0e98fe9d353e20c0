package complete_partial_payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/partialpayment"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgNotPartial       = "бронирование не использует частичную оплату"
	msgAlreadyCompleted = "остаток уже погашен"
)

type Handler struct {
	service PartialPaymentService
	logger  Logger
}

func NewHandler(service PartialPaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/partial-payment/complete
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/partial-payment/complete - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	booking, err := h.service.MarkComplete(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, partialpayment.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, partialpayment.ErrNotPartialPayment):
			handlers.RespondBadRequest(w, msgNotPartial)

		case errors.Is(err, partialpayment.ErrAlreadyCompleted):
			handlers.RespondConflict(w, msgAlreadyCompleted)

		default:
			h.logger.Error("PATCH /bookings/{id}/partial-payment/complete - Failed to complete payment: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/partial-payment/complete - Partial payment settled: booking_id=%d, status=%s",
		bookingID, booking.Status)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}
