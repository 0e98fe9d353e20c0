package shift_batch

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/shift_batch"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgInvalidStatus      = "статус бронирования не допускает перенос"
	msgBatchNotInTrek     = "целевое отправление не принадлежит этому треку"
	msgSameBatch          = "целевое отправление совпадает с текущим"
	msgBatchStarted       = "целевое отправление уже стартовало"
	msgBatchFull          = "в целевом отправлении недостаточно мест"
)

type Handler struct {
	useCase ShiftBatchUseCase
	logger  Logger
}

func NewHandler(useCase ShiftBatchUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// ShiftBatchRequest HTTP request model
type ShiftBatchRequest struct {
	TargetBatchID int64 `json:"targetBatchId"`
}

// ShiftBatchResponse HTTP response model
type ShiftBatchResponse struct {
	BookingID           int64      `json:"bookingId"`
	OldBatchID          int64      `json:"oldBatchId"`
	NewBatchID          int64      `json:"newBatchId"`
	Status              string     `json:"status"`
	FinalPaymentDueDate *time.Time `json:"finalPaymentDueDate,omitempty"`
}

// Handle PATCH /api/v1/bookings/{bookingId}/shift-batch
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/shift-batch - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req ShiftBatchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/shift-batch - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &usecase.Request{
		BookingID:     bookingID,
		TargetBatchID: req.TargetBatchID,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, usecase.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, usecase.ErrInvalidStatus):
			handlers.RespondConflict(w, msgInvalidStatus)

		case errors.Is(err, usecase.ErrBatchNotInTrek):
			handlers.RespondBadRequest(w, msgBatchNotInTrek)

		case errors.Is(err, usecase.ErrSameBatch):
			handlers.RespondBadRequest(w, msgSameBatch)

		case errors.Is(err, usecase.ErrBatchStarted):
			handlers.RespondBadRequest(w, msgBatchStarted)

		case errors.Is(err, usecase.ErrBatchFull):
			h.logger.Warn("PATCH /bookings/{id}/shift-batch - Target batch full: booking_id=%d, target_batch_id=%d",
				bookingID, req.TargetBatchID)
			handlers.RespondConflict(w, msgBatchFull)

		default:
			h.logger.Error("PATCH /bookings/{id}/shift-batch - Failed to shift booking: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/shift-batch - Booking moved: booking_id=%d, old_batch_id=%d, new_batch_id=%d",
		bookingID, resp.OldBatchID, resp.NewBatchID)
	handlers.RespondJSON(w, http.StatusOK, &ShiftBatchResponse{
		BookingID:           resp.BookingID,
		OldBatchID:          resp.OldBatchID,
		NewBatchID:          resp.NewBatchID,
		Status:              resp.Status,
		FinalPaymentDueDate: resp.FinalPaymentDueDate,
	})
}
