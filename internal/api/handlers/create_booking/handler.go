package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/api/middleware"
	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "требуется аутентификация"
	msgTrekNotFound       = "трек не найден"
	msgBatchNotFound      = "отправление не найдено"
	msgTrekDisabled       = "трек недоступен для бронирования"
	msgBatchStarted       = "отправление уже стартовало"
	msgBatchFull          = "недостаточно свободных мест"
	msgPartialDisabled    = "частичная оплата недоступна для этого трека"
	msgFinalPaymentWindow = "до старта слишком мало дней для частичной оплаты"
	msgAmountMismatch     = "сумма первого взноса не совпадает с расчётной"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Validation failed: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, usecase.ErrTrekNotFound):
			handlers.RespondNotFound(w, msgTrekNotFound)

		case errors.Is(err, usecase.ErrBatchNotFound):
			handlers.RespondNotFound(w, msgBatchNotFound)

		case errors.Is(err, usecase.ErrTrekDisabled):
			handlers.RespondBadRequest(w, msgTrekDisabled)

		case errors.Is(err, usecase.ErrBatchStarted):
			handlers.RespondBadRequest(w, msgBatchStarted)

		case errors.Is(err, usecase.ErrBatchFull):
			h.logger.Warn("POST /bookings - Batch full: trek_id=%d, batch_id=%d", req.TrekID, req.BatchID)
			handlers.RespondConflict(w, msgBatchFull)

		case errors.Is(err, usecase.ErrPartialPaymentDisabled):
			handlers.RespondBadRequest(w, msgPartialDisabled)

		case errors.Is(err, usecase.ErrFinalPaymentWindow):
			handlers.RespondBadRequest(w, msgFinalPaymentWindow)

		case errors.Is(err, usecase.ErrAmountMismatch):
			handlers.RespondBadRequest(w, msgAmountMismatch)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created: booking_id=%d, user_id=%d, status=%s",
		resp.ID, userID, resp.Status)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(resp))
}
