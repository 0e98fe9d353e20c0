package get_batch_availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/get_batch_availability"
)

const (
	msgInvalidTrekID = "некорректный ID трека"
	msgTrekNotFound  = "трек не найден"
	msgTrekDisabled  = "трек недоступен для бронирования"
)

type Handler struct {
	useCase GetBatchAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetBatchAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	TrekID  int64               `json:"trekId"`
	Batches []BatchAvailability `json:"batches"`
}

// BatchAvailability доступность одного отправления
type BatchAvailability struct {
	BatchID   int64   `json:"batchId"`
	StartDate string  `json:"startDate"` // "2025-10-15"
	EndDate   string  `json:"endDate"`
	Price     float64 `json:"price"`
	FreeSeats int     `json:"freeSeats"`
	MaxSeats  int     `json:"maxSeats"`
}

// Handle GET /api/v1/treks/{trekId}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	trekID, err := strconv.ParseInt(mux.Vars(r)["trekId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /treks/{id}/availability - Invalid trek ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTrekID)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &usecase.Request{TrekID: trekID})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidTrekID)

		case errors.Is(err, usecase.ErrTrekNotFound):
			handlers.RespondNotFound(w, msgTrekNotFound)

		case errors.Is(err, usecase.ErrTrekDisabled):
			handlers.RespondBadRequest(w, msgTrekDisabled)

		default:
			h.logger.Error("GET /treks/{id}/availability - Failed to get availability: trek_id=%d, error=%v", trekID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	out := &AvailabilityResponse{TrekID: resp.TrekID, Batches: make([]BatchAvailability, 0, len(resp.Batches))}
	for _, b := range resp.Batches {
		out.Batches = append(out.Batches, BatchAvailability{
			BatchID:   b.BatchID,
			StartDate: b.StartDate.Format(domain.DateFormat),
			EndDate:   b.EndDate.Format(domain.DateFormat),
			Price:     b.Price,
			FreeSeats: b.FreeSeats,
			MaxSeats:  b.MaxSeats,
		})
	}

	handlers.RespondJSON(w, http.StatusOK, out)
}
