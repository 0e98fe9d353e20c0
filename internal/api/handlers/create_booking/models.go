package create_booking

import (
	"time"

	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	TrekID               int64    `json:"trekId"`
	BatchID              int64    `json:"batchId"`
	NumberOfParticipants int      `json:"numberOfParticipants"`
	ContactName          string   `json:"contactName"`
	ContactEmail         string   `json:"contactEmail"`
	PaymentMode          string   `json:"paymentMode"`
	InitialAmount        *float64 `json:"initialAmount,omitempty"`
	PromoCode            *string  `json:"promoCode,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель usecase
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) *usecase.Request {
	return &usecase.Request{
		UserID:               userID,
		TrekID:               r.TrekID,
		BatchID:              r.BatchID,
		NumberOfParticipants: r.NumberOfParticipants,
		ContactName:          r.ContactName,
		ContactEmail:         r.ContactEmail,
		PaymentMode:          r.PaymentMode,
		ClientInitialAmount:  r.InitialAmount,
		PromoCode:            r.PromoCode,
	}
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"userId"`
	TrekID               int64      `json:"trekId"`
	BatchID              int64      `json:"batchId"`
	NumberOfParticipants int        `json:"numberOfParticipants"`
	TotalPrice           float64    `json:"totalPrice"`
	Status               string     `json:"status"`
	PaymentMode          string     `json:"paymentMode"`
	PromoCode            *string    `json:"promoCode,omitempty"`
	ContactName          string     `json:"contactName"`
	ContactEmail         string     `json:"contactEmail"`
	InitialAmount        *float64   `json:"initialAmount,omitempty"`
	RemainingAmount      *float64   `json:"remainingAmount,omitempty"`
	FinalPaymentDueDate  *time.Time `json:"finalPaymentDueDate,omitempty"`
	SessionToken         *string    `json:"sessionToken,omitempty"`
	SessionExpiresAt     *time.Time `json:"sessionExpiresAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// FromUseCaseResponse конвертирует модель usecase в HTTP response
func FromUseCaseResponse(resp *usecase.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		ID:                   resp.ID,
		UserID:               resp.UserID,
		TrekID:               resp.TrekID,
		BatchID:              resp.BatchID,
		NumberOfParticipants: resp.NumberOfParticipants,
		TotalPrice:           resp.TotalPrice,
		Status:               resp.Status,
		PaymentMode:          resp.PaymentMode,
		PromoCode:            resp.PromoCode,
		ContactName:          resp.ContactName,
		ContactEmail:         resp.ContactEmail,
		InitialAmount:        resp.InitialAmount,
		RemainingAmount:      resp.RemainingAmount,
		FinalPaymentDueDate:  resp.FinalPaymentDueDate,
		SessionToken:         resp.SessionToken,
		SessionExpiresAt:     resp.SessionExpiresAt,
		CreatedAt:            resp.CreatedAt,
		UpdatedAt:            resp.UpdatedAt,
	}
}
