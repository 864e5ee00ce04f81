package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdviseKind distinguishes per-day activity suggestions from trip-wide tips.
type AdviseKind string

const (
	KindActivity AdviseKind = "activity"
	KindTip      AdviseKind = "tip"
)

// AdviseState is the lifecycle state of an advice record. Records are
// created Pending and move to Completed or Failed exactly once; they never
// revert.
type AdviseState string

const (
	StatePending   AdviseState = "pending"
	StateCompleted AdviseState = "completed"
	StateFailed    AdviseState = "failed"
)

// AdviseRecord is one generated piece of trip guidance. Activity records
// carry a ForDate inside the trip's date range; Tip records may span the
// whole trip and leave ForDate nil.
type AdviseRecord struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	Kind      AdviseKind
	ForDate   *time.Time // nil for trip-wide records
	State     AdviseState
	Advice    string // empty until Completed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DayNumber returns the zero-based day offset of the record inside its trip.
// Returns 0 for records without a ForDate.
func (a AdviseRecord) DayNumber(tripStart time.Time) int {
	if a.ForDate == nil {
		return 0
	}
	return int(a.ForDate.Sub(tripStart).Hours() / 24)
}
