package cancel_booking

import (
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason       *string  `json:"reason,omitempty"`
	RefundType   *string  `json:"refundType,omitempty"` // auto | full | custom (custom только для администратора)
	CustomAmount *float64 `json:"customAmount,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(bookingID, userID int64, isAdmin bool) *models.CancelBookingRequest {
	reason := ""
	if r.Reason != nil {
		reason = *r.Reason
	}

	refundType := ""
	if r.RefundType != nil {
		refundType = *r.RefundType
	}

	return &models.CancelBookingRequest{
		BookingID:    bookingID,
		UserID:       userID,
		IsAdmin:      isAdmin,
		Reason:       reason,
		RefundType:   refundType,
		CustomAmount: r.CustomAmount,
	}
}
