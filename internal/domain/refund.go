package domain

import "time"

// RefundType determines how a refund amount is computed
type RefundType string

const (
	RefundTypeAuto   RefundType = "auto"   // tiered schedule keyed on days to departure
	RefundTypeFull   RefundType = "full"   // full price regardless of timing
	RefundTypeCustom RefundType = "custom" // caller-supplied amount, admin only
)

// Refund schedule tiers (whole days before departure)
const (
	FreeCancellationDays = 21 // strictly more days out: 100% refund
	RefundTier75Days     = 15 // [15, 21] days out: 75% refund
	RefundTier50Days     = 8  // [8, 14] days out: 50% refund
)

// DaysUntilDeparture returns the number of whole days between the evaluation
// date and the batch start date. Both values are truncated to dates so the
// time-of-day never shifts the tier boundary.
func DaysUntilDeparture(batchStart, evaluatedAt time.Time) int {
	start := time.Date(batchStart.Year(), batchStart.Month(), batchStart.Day(), 0, 0, 0, 0, time.UTC)
	eval := time.Date(evaluatedAt.Year(), evaluatedAt.Month(), evaluatedAt.Day(), 0, 0, 0, 0, time.UTC)
	return int(start.Sub(eval).Hours() / 24)
}

// RefundAmount computes the refund for a single participant given the
// per-participant price, the batch departure date and the evaluation moment.
//
// Modes:
//   - RefundTypeAuto: tiered schedule - >21 days out 100%, [15,21] 75%,
//     [8,14] 50%, <8 days nothing;
//   - RefundTypeFull: full price regardless of timing;
//   - RefundTypeCustom: not computed here, callers supply the amount
//     themselves - this function returns 0 for it.
//
// The function is pure: it never mutates state and the caller is responsible
// for rounding and aggregation.
func RefundAmount(perParticipantPrice float64, batchStart, evaluatedAt time.Time, mode RefundType) float64 {
	switch mode {
	case RefundTypeFull:
		return perParticipantPrice
	case RefundTypeCustom:
		return 0
	}

	days := DaysUntilDeparture(batchStart, evaluatedAt)
	switch {
	case days > FreeCancellationDays:
		return perParticipantPrice
	case days >= RefundTier75Days:
		return perParticipantPrice * 0.75
	case days >= RefundTier50Days:
		return perParticipantPrice * 0.50
	default:
		return 0
	}
}

// RefundTierDescription returns the human-readable policy tier for the given
// number of whole days before departure. Used by the refund preview so the
// description always matches what RefundAmount will compute.
func RefundTierDescription(days int) string {
	switch {
	case days > FreeCancellationDays:
		return "Free cancellation"
	case days >= RefundTier75Days:
		return "75% refund"
	case days >= RefundTier50Days:
		return "50% refund"
	default:
		return "No refund"
	}
}
