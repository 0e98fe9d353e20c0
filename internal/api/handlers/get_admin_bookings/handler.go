package get_admin_bookings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

const (
	msgInvalidQuery  = "некорректные параметры запроса"
	msgInvalidStatus = "некорректный статус бронирования"
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

// Handle GET /api/v1/admin/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := parseQuery(r)
	if err != nil {
		h.logger.Warn("GET /admin/bookings - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	resp, err := h.service.GetAdminBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidStatus):
			handlers.RespondBadRequest(w, msgInvalidStatus)

		default:
			h.logger.Error("GET /admin/bookings - Failed to list bookings: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

func parseQuery(r *http.Request) (*models.GetAdminBookingsRequest, error) {
	q := r.URL.Query()
	req := &models.GetAdminBookingsRequest{}

	if v := q.Get("status"); v != "" {
		req.Status = &v
	}
	if v := q.Get("search"); v != "" {
		req.Search = &v
	}

	if v := q.Get("trekId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		req.TrekID = &id
	}
	if v := q.Get("batchId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		req.BatchID = &id
	}

	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(domain.DateFormat, v)
		if err != nil {
			return nil, err
		}
		req.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(domain.DateFormat, v)
		if err != nil {
			return nil, err
		}
		req.EndDate = &t
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, err
		}
		req.Page = page
	}
	if v := q.Get("pageSize"); v != "" {
		size, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, err
		}
		req.PageSize = size
	}

	return req, nil
}
