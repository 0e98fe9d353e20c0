package domain

import "time"

// AmountType determines how the initial partial-payment amount is computed
type AmountType string

const (
	AmountTypeFixed      AmountType = "fixed"      // fixed amount per participant
	AmountTypePercentage AmountType = "percentage" // percentage of the total price
)

// PartialPaymentPolicy is a trek's partial-payment configuration
type PartialPaymentPolicy struct {
	Enabled             bool
	AmountType          AmountType
	Amount              float64
	FinalPaymentDueDays int // days before departure when the remaining amount is due
}

// InitialAmount computes the first installment for a booking,
// clamped so it never exceeds the total price
func (p PartialPaymentPolicy) InitialAmount(totalPrice float64, participants int) float64 {
	var initial float64
	switch p.AmountType {
	case AmountTypeFixed:
		initial = p.Amount * float64(participants)
	case AmountTypePercentage:
		initial = totalPrice * p.Amount / 100
	}
	if initial > totalPrice {
		initial = totalPrice
	}
	return initial
}

// Trek is a product definition owning a collection of scheduled batches
type Trek struct {
	ID         int64
	Name       string
	Slug       string
	Region     string
	Difficulty string
	Enabled    bool
	IsCustom   bool // custom/offline treks book directly into confirmed

	PartialPayment PartialPaymentPolicy

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Batch is one scheduled departure of a trek
//
// CurrentParticipants is a cached, derived counter - the authoritative seat
// count is always recomputed from the booking records. Version is the
// optimistic-concurrency token guarding writes to the cached counter.
type Batch struct {
	ID     int64
	TrekID int64

	StartDate time.Time
	EndDate   time.Time
	Price     float64

	MaxParticipants     int
	ReservedSlots       int
	CurrentParticipants int
	Version             int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SellableCapacity returns the number of seats open to public sale
func (b *Batch) SellableCapacity() int {
	capacity := b.MaxParticipants - b.ReservedSlots
	if capacity < 0 {
		return 0
	}
	return capacity
}

// HasStarted returns true if the batch has already departed
func (b *Batch) HasStarted(now time.Time) bool {
	return !now.Before(b.StartDate)
}

// FreeSeats returns the number of sellable seats left given the
// authoritative seats-used count
func (b *Batch) FreeSeats(seatsUsed int) int {
	free := b.SellableCapacity() - seatsUsed
	if free < 0 {
		return 0
	}
	return free
}
