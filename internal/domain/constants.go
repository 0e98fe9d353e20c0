package domain

// Default configuration values
const (
	DefaultSessionTTLMinutes    = 30 // payment-pending booking lease
	DefaultReminderWindowDays   = 3  // final-payment reminder window
	DefaultReconcileHorizonDays = 90
	DefaultFinalPaymentDueDays  = 10
)

// Business validation constants
const (
	MinParticipantsPerBooking   = 1
	MaxParticipantsPerBooking   = 50
	MaxParticipantAge           = 120
	MaxContactNameLength        = 200
	MaxCancellationReasonLength = 500
	MaxAdminResponseLength      = 500
)

// Pagination limits for admin listings
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// CountedStatuses lists the statuses that hold seats in a batch
var CountedStatuses = []BookingStatus{
	StatusPaymentCompleted,
	StatusPaymentConfirmedPartial,
	StatusConfirmed,
}

// CancellableRequestStatuses lists the statuses from which a
// cancellation or reschedule request may be submitted
var CancellableRequestStatuses = []BookingStatus{
	StatusPaymentCompleted,
	StatusPaymentConfirmedPartial,
	StatusConfirmed,
}
