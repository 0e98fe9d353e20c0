package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending                 BookingStatus = "pending"
	StatusPendingPayment          BookingStatus = "pending_payment"
	StatusPaymentCompleted        BookingStatus = "payment_completed"
	StatusPaymentConfirmedPartial BookingStatus = "payment_confirmed_partial"
	StatusConfirmed               BookingStatus = "confirmed"
	StatusTrekCompleted           BookingStatus = "trek_completed"
	StatusCancelled               BookingStatus = "cancelled"
)

// PaymentMode represents how a booking is paid for
type PaymentMode string

const (
	PaymentModeFull    PaymentMode = "full"
	PaymentModePartial PaymentMode = "partial"
)

// RefundStatus represents the state of a refund payout
type RefundStatus string

const (
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusSuccess    RefundStatus = "success"
	RefundStatusFailed     RefundStatus = "failed"
)

// RequestType represents the kind of a cancellation request
type RequestType string

const (
	RequestTypeCancellation RequestType = "cancellation"
	RequestTypeReschedule   RequestType = "reschedule"
)

// RequestStatus represents the approval state of a cancellation request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Participant represents a single seat in a booking
// Each participant is independently cancellable with its own refund bookkeeping
type Participant struct {
	ID        string
	BookingID int64
	Name      string
	Age       int
	Phone     *string

	IsCancelled        bool
	CancelledAt        *time.Time
	CancellationReason *string

	RefundStatus *RefundStatus
	RefundAmount *float64
	RefundDate   *time.Time
	RefundType   *RefundType

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PartialPaymentDetails tracks the initial/remaining split of a partial payment
type PartialPaymentDetails struct {
	InitialAmount       float64
	RemainingAmount     float64
	FinalPaymentDueDate *time.Time
	CompletedAt         *time.Time
	ReminderSent        bool
	ReminderSentAt      *time.Time
}

// IsCompleted returns true if the remaining amount has been settled
func (p *PartialPaymentDetails) IsCompleted() bool {
	return p.CompletedAt != nil
}

// CancellationRequest is the approval sub-state-machine attached to a booking
type CancellationRequest struct {
	Type             RequestType
	Status           RequestStatus
	Reason           *string
	PreferredBatchID *int64
	AdminResponse    *string
	CreatedAt        *time.Time
	ResolvedAt       *time.Time
}

// IsPending returns true if the request awaits an admin decision
func (r *CancellationRequest) IsPending() bool {
	return r != nil && r.Status == RequestStatusPending
}

// BookingSession is the soft lease guarding a payment-pending booking
// While the lease is live, a repeated payment attempt from the same
// user/trek/batch updates the existing booking instead of creating a duplicate
type BookingSession struct {
	Token     string
	ExpiresAt time.Time
}

// IsLive returns true if the session lease has not expired
func (s *BookingSession) IsLive(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// Booking is the central aggregate of the service
type Booking struct {
	ID      int64
	UserID  int64
	TrekID  int64
	BatchID int64

	NumberOfParticipants int
	TotalPrice           float64
	Status               BookingStatus
	PaymentMode          PaymentMode
	PaymentID            *string
	PromoCode            *string

	ContactName  string
	ContactEmail string

	Partial *PartialPaymentDetails
	Request *CancellationRequest
	Session *BookingSession

	RefundStatus *RefundStatus
	RefundAmount *float64
	RefundDate   *time.Time
	RefundType   *RefundType

	CancellationReason *string
	CancelledAt        *time.Time

	Participants []*Participant

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// IsCounted returns true if the booking's status contributes to batch capacity
func (b *Booking) IsCounted() bool {
	switch b.Status {
	case StatusPaymentCompleted, StatusPaymentConfirmedPartial, StatusConfirmed:
		return true
	default:
		return false
	}
}

// HasPayment returns true if a payment is associated with the booking
func (b *Booking) HasPayment() bool {
	return b.PaymentID != nil && *b.PaymentID != ""
}

// ActiveParticipants returns the non-cancelled participant entries
func (b *Booking) ActiveParticipants() []*Participant {
	active := make([]*Participant, 0, len(b.Participants))
	for _, p := range b.Participants {
		if !p.IsCancelled {
			active = append(active, p)
		}
	}
	return active
}

// DetailsCollected returns true once per-seat participant forms have been submitted
// Before that point NumberOfParticipants is the sole source of the seat count
func (b *Booking) DetailsCollected() bool {
	return len(b.Participants) > 0
}

// SeatsHeld returns the number of batch seats this booking occupies
//
// The booking passes through two explicit phases:
//   - participant details not yet collected (payment_completed,
//     payment_confirmed_partial) - the declared NumberOfParticipants holds;
//   - details collected (confirmed) - the live participant rows hold, with a
//     fallback to NumberOfParticipants while the rows are still absent.
//
// Non-counted statuses (pending_payment, cancelled, ...) hold zero seats.
func (b *Booking) SeatsHeld() int {
	switch b.Status {
	case StatusPaymentCompleted, StatusPaymentConfirmedPartial:
		return b.NumberOfParticipants
	case StatusConfirmed:
		if !b.DetailsCollected() {
			return b.NumberOfParticipants
		}
		return len(b.ActiveParticipants())
	default:
		return 0
	}
}

// CanBeCancelled returns true if the booking may still be cancelled
// A booking is not cancellable once cancelled or after the batch has departed
func (b *Booking) CanBeCancelled(batchStart time.Time, now time.Time) bool {
	if b.IsCancelled() || b.Status == StatusTrekCompleted {
		return false
	}
	return now.Before(batchStart)
}

// ValidStatus reports whether s is a known booking status
func ValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusPendingPayment, StatusPaymentCompleted,
		StatusPaymentConfirmedPartial, StatusConfirmed, StatusTrekCompleted,
		StatusCancelled:
		return true
	default:
		return false
	}
}
