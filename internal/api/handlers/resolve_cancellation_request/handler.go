package resolve_cancellation_request

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/api/middleware"
	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/resolve_cancellation_request"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "требуется аутентификация"
	msgNotFound           = "бронирование не найдено"
	msgNoPendingRequest   = "по бронированию нет нерассмотренной заявки"
	msgAlreadyCancelled   = "бронирование уже отменено"
	msgTrekStarted        = "трек уже стартовал"
	msgBatchFull          = "в целевом отправлении недостаточно мест"
	msgBatchNotInTrek     = "целевое отправление не принадлежит этому треку"
	msgBatchStarted       = "целевое отправление уже стартовало"
)

type Handler struct {
	useCase ResolveCancellationRequestUseCase
	logger  Logger
}

func NewHandler(useCase ResolveCancellationRequestUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// ResolveRequestBody HTTP request model
type ResolveRequestBody struct {
	Approve       bool    `json:"approve"`
	AdminResponse *string `json:"adminResponse,omitempty"`
}

// ResolveRequestResponse HTTP response model
type ResolveRequestResponse struct {
	BookingID     int64     `json:"bookingId"`
	RequestType   string    `json:"requestType"`
	RequestStatus string    `json:"requestStatus"`
	AdminResponse *string   `json:"adminResponse,omitempty"`
	ResolvedAt    time.Time `json:"resolvedAt"`
	NewBatchID    *int64    `json:"newBatchId,omitempty"`
}

// Handle PATCH /api/v1/bookings/{bookingId}/cancellation-request
//
// Одобрение исполняет действие заявки: отмена или перенос происходят
// в той же транзакции, что и смена статуса заявки
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancellation-request - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req ResolveRequestBody
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancellation-request - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &usecase.Request{
		BookingID:     bookingID,
		AdminID:       adminID,
		Approve:       req.Approve,
		AdminResponse: req.AdminResponse,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, usecase.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, usecase.ErrNoPendingRequest):
			handlers.RespondConflict(w, msgNoPendingRequest)

		case errors.Is(err, usecase.ErrAlreadyCancelled):
			handlers.RespondConflict(w, msgAlreadyCancelled)

		case errors.Is(err, usecase.ErrTrekStarted):
			handlers.RespondBadRequest(w, msgTrekStarted)

		case errors.Is(err, usecase.ErrBatchFull):
			handlers.RespondConflict(w, msgBatchFull)

		case errors.Is(err, usecase.ErrBatchNotInTrek):
			handlers.RespondBadRequest(w, msgBatchNotInTrek)

		case errors.Is(err, usecase.ErrBatchStarted):
			handlers.RespondBadRequest(w, msgBatchStarted)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancellation-request - Failed to resolve request: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancellation-request - Request %s: booking_id=%d, admin_id=%d",
		resp.RequestStatus, bookingID, adminID)
	handlers.RespondJSON(w, http.StatusOK, &ResolveRequestResponse{
		BookingID:     resp.BookingID,
		RequestType:   resp.RequestType,
		RequestStatus: resp.RequestStatus,
		AdminResponse: resp.AdminResponse,
		ResolvedAt:    resp.ResolvedAt,
		NewBatchID:    resp.NewBatchID,
	})
}
