package create_cancellation_request

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/api/middleware"
	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/submit_cancellation_request"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "требуется аутентификация"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgInvalidStatus      = "статус бронирования не допускает подачу заявки"
	msgDuplicateRequest   = "по бронированию уже есть нерассмотренная заявка"
	msgBatchNotInTrek     = "целевое отправление не принадлежит этому треку"
	msgSameBatch          = "целевое отправление совпадает с текущим"
	msgBatchStarted       = "целевое отправление уже стартовало"
	msgBatchFull          = "в целевом отправлении недостаточно мест"
)

type Handler struct {
	useCase SubmitCancellationRequestUseCase
	logger  Logger
}

func NewHandler(useCase SubmitCancellationRequestUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// CreateRequestBody HTTP request model
type CreateRequestBody struct {
	RequestType      string  `json:"requestType"` // cancellation | reschedule
	Reason           *string `json:"reason,omitempty"`
	PreferredBatchID *int64  `json:"preferredBatchId,omitempty"`
}

// CreateRequestResponse HTTP response model
type CreateRequestResponse struct {
	BookingID        int64     `json:"bookingId"`
	RequestType      string    `json:"requestType"`
	RequestStatus    string    `json:"requestStatus"`
	Reason           *string   `json:"reason,omitempty"`
	PreferredBatchID *int64    `json:"preferredBatchId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Handle POST /api/v1/bookings/{bookingId}/cancellation-request
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/cancellation-request - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req CreateRequestBody
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/cancellation-request - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &usecase.Request{
		BookingID:        bookingID,
		UserID:           userID,
		IsAdmin:          middleware.IsAdmin(r.Context()),
		RequestType:      req.RequestType,
		Reason:           req.Reason,
		PreferredBatchID: req.PreferredBatchID,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, usecase.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, usecase.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/cancellation-request - Access denied: booking_id=%d, user_id=%d",
				bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, usecase.ErrInvalidStatus):
			handlers.RespondConflict(w, msgInvalidStatus)

		case errors.Is(err, usecase.ErrDuplicateRequest):
			handlers.RespondConflict(w, msgDuplicateRequest)

		case errors.Is(err, usecase.ErrBatchNotInTrek):
			handlers.RespondBadRequest(w, msgBatchNotInTrek)

		case errors.Is(err, usecase.ErrSameBatch):
			handlers.RespondBadRequest(w, msgSameBatch)

		case errors.Is(err, usecase.ErrBatchStarted):
			handlers.RespondBadRequest(w, msgBatchStarted)

		case errors.Is(err, usecase.ErrBatchFull):
			handlers.RespondConflict(w, msgBatchFull)

		default:
			h.logger.Error("POST /bookings/{id}/cancellation-request - Failed to create request: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/cancellation-request - Request created: booking_id=%d, type=%s",
		bookingID, resp.RequestType)
	handlers.RespondJSON(w, http.StatusCreated, &CreateRequestResponse{
		BookingID:        resp.BookingID,
		RequestType:      resp.RequestType,
		RequestStatus:    resp.RequestStatus,
		Reason:           resp.Reason,
		PreferredBatchID: resp.PreferredBatchID,
		CreatedAt:        resp.CreatedAt,
	})
}
