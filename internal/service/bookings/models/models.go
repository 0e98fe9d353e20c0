package models

import (
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// Request модели

// GetAdminBookingsRequest запрос на админскую выборку бронирований
type GetAdminBookingsRequest struct {
	Status    *string    `json:"status,omitempty"`
	TrekID    *int64     `json:"trekId,omitempty"`
	BatchID   *int64     `json:"batchId,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Search    *string    `json:"search,omitempty"`
	Page      uint64     `json:"page"`
	PageSize  uint64     `json:"pageSize"`
}

// CancelBookingRequest запрос на полную отмену бронирования
type CancelBookingRequest struct {
	BookingID    int64
	UserID       int64
	IsAdmin      bool
	Reason       string
	RefundType   string
	CustomAmount *float64
}

// CancelParticipantRequest запрос на отмену одного участника
type CancelParticipantRequest struct {
	BookingID     int64
	ParticipantID string
	UserID        int64
	IsAdmin       bool
	Reason        string
	RefundType    string
	CustomAmount  *float64
}

// ParticipantInput анкета одного участника
type ParticipantInput struct {
	Name  string  `json:"name"`
	Age   int     `json:"age"`
	Phone *string `json:"phone,omitempty"`
}

// CalculateRefundRequest запрос на предварительный расчёт возврата
type CalculateRefundRequest struct {
	BookingID      int64
	UserID         int64
	IsAdmin        bool
	Scope          string // "entire" | "individual"
	ParticipantIDs []string
	RefundType     string
}

// Response модели

// TrekSnapshot срез данных трека в ответе бронирования
type TrekSnapshot struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	Difficulty string `json:"difficulty"`
}

// BatchSnapshot срез данных батча в ответе бронирования
type BatchSnapshot struct {
	ID        int64   `json:"id"`
	StartDate string  `json:"startDate"` // "2025-10-15"
	EndDate   string  `json:"endDate"`
	Price     float64 `json:"price"`
}

// PartialPaymentResponse состояние частичной оплаты
type PartialPaymentResponse struct {
	InitialAmount       float64    `json:"initialAmount"`
	RemainingAmount     float64    `json:"remainingAmount"`
	FinalPaymentDueDate *string    `json:"finalPaymentDueDate,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	ReminderSent        bool       `json:"reminderSent"`
}

// CancellationRequestResponse состояние заявки на отмену/перенос
type CancellationRequestResponse struct {
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Reason           *string    `json:"reason,omitempty"`
	PreferredBatchID *int64     `json:"preferredBatchId,omitempty"`
	AdminResponse    *string    `json:"adminResponse,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
}

// ParticipantResponse участник бронирования
type ParticipantResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Age                int        `json:"age"`
	Phone              *string    `json:"phone,omitempty"`
	IsCancelled        bool       `json:"isCancelled"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	RefundStatus       *string    `json:"refundStatus,omitempty"`
	RefundAmount       *float64   `json:"refundAmount,omitempty"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                   int64                        `json:"id"`
	UserID               int64                        `json:"userId"`
	TrekID               int64                        `json:"trekId"`
	BatchID              int64                        `json:"batchId"`
	NumberOfParticipants int                          `json:"numberOfParticipants"`
	TotalPrice           float64                      `json:"totalPrice"`
	Status               string                       `json:"status"`
	PaymentMode          string                       `json:"paymentMode"`
	PromoCode            *string                      `json:"promoCode,omitempty"`
	ContactName          string                       `json:"contactName"`
	ContactEmail         string                       `json:"contactEmail"`
	Trek                 *TrekSnapshot                `json:"trek,omitempty"`
	Batch                *BatchSnapshot               `json:"batch,omitempty"`
	PartialPayment       *PartialPaymentResponse      `json:"partialPayment,omitempty"`
	CancellationRequest  *CancellationRequestResponse `json:"cancellationRequest,omitempty"`
	RefundStatus         *string                      `json:"refundStatus,omitempty"`
	RefundAmount         *float64                     `json:"refundAmount,omitempty"`
	CancellationReason   *string                      `json:"cancellationReason,omitempty"`
	CancelledAt          *time.Time                   `json:"cancelledAt,omitempty"`
	Participants         []ParticipantResponse        `json:"participants,omitempty"`
	CreatedAt            time.Time                    `json:"createdAt"`
	UpdatedAt            time.Time                    `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
}

// RefundPreviewResponse предварительный расчёт возврата
type RefundPreviewResponse struct {
	BookingID         int64               `json:"bookingId"`
	RefundType        string              `json:"refundType"`
	DaysToDeparture   int                 `json:"daysToDeparture"`
	PolicyDescription string              `json:"policyDescription"`
	TotalRefund       float64             `json:"totalRefund"`
	Breakdown         []ParticipantRefund `json:"breakdown,omitempty"`
}

// ParticipantRefund строка расчёта возврата по одному участнику
type ParticipantRefund struct {
	ParticipantID string  `json:"participantId,omitempty"`
	Amount        float64 `json:"amount"`
}

// FromDomainBooking конвертирует domain.Booking в BookingResponse
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                   b.ID,
		UserID:               b.UserID,
		TrekID:               b.TrekID,
		BatchID:              b.BatchID,
		NumberOfParticipants: b.NumberOfParticipants,
		TotalPrice:           b.TotalPrice,
		Status:               string(b.Status),
		PaymentMode:          string(b.PaymentMode),
		PromoCode:            b.PromoCode,
		ContactName:          b.ContactName,
		ContactEmail:         b.ContactEmail,
		CancellationReason:   b.CancellationReason,
		CancelledAt:          b.CancelledAt,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}

	if b.RefundStatus != nil {
		status := string(*b.RefundStatus)
		resp.RefundStatus = &status
	}
	resp.RefundAmount = b.RefundAmount

	if b.Partial != nil {
		partial := &PartialPaymentResponse{
			InitialAmount:   b.Partial.InitialAmount,
			RemainingAmount: b.Partial.RemainingAmount,
			CompletedAt:     b.Partial.CompletedAt,
			ReminderSent:    b.Partial.ReminderSent,
		}
		if b.Partial.FinalPaymentDueDate != nil {
			due := b.Partial.FinalPaymentDueDate.Format(domain.DateFormat)
			partial.FinalPaymentDueDate = &due
		}
		resp.PartialPayment = partial
	}

	if b.Request != nil {
		resp.CancellationRequest = &CancellationRequestResponse{
			Type:             string(b.Request.Type),
			Status:           string(b.Request.Status),
			Reason:           b.Request.Reason,
			PreferredBatchID: b.Request.PreferredBatchID,
			AdminResponse:    b.Request.AdminResponse,
			CreatedAt:        b.Request.CreatedAt,
			ResolvedAt:       b.Request.ResolvedAt,
		}
	}

	for _, p := range b.Participants {
		participant := ParticipantResponse{
			ID:                 p.ID,
			Name:               p.Name,
			Age:                p.Age,
			Phone:              p.Phone,
			IsCancelled:        p.IsCancelled,
			CancelledAt:        p.CancelledAt,
			CancellationReason: p.CancellationReason,
			RefundAmount:       p.RefundAmount,
		}
		if p.RefundStatus != nil {
			status := string(*p.RefundStatus)
			participant.RefundStatus = &status
		}
		resp.Participants = append(resp.Participants, participant)
	}

	return resp
}

// WithSnapshots дополняет ответ срезами трека и батча
func (r *BookingResponse) WithSnapshots(trek *domain.Trek, batch *domain.Batch) *BookingResponse {
	if trek != nil {
		r.Trek = &TrekSnapshot{
			ID:         trek.ID,
			Name:       trek.Name,
			Region:     trek.Region,
			Difficulty: trek.Difficulty,
		}
	}
	if batch != nil {
		r.Batch = &BatchSnapshot{
			ID:        batch.ID,
			StartDate: batch.StartDate.Format(domain.DateFormat),
			EndDate:   batch.EndDate.Format(domain.DateFormat),
			Price:     batch.Price,
		}
	}
	return r
}

// FromDomainBookingList конвертирует список бронирований
func FromDomainBookingList(bookings []*domain.Booking, total int64) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
		Total:    total,
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, *FromDomainBooking(b))
	}
	return resp
}
