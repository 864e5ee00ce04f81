// Package domain contains the core data types for the Trip Planner
// application. This package has zero external dependencies beyond uuid and
// is imported by every other internal package (repo, service, pipeline,
// handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate: a planned stay at a destination over an
// inclusive date range. Weather samples and advice records belong to a trip
// and are deleted with it. A trip is immutable once created; all later
// writes happen on its child records.
type Trip struct {
	ID          uuid.UUID
	Destination Destination
	StartDate   time.Time // date only, midnight UTC
	EndDate     time.Time // derived: StartDate + duration days
	Preferences string
	CreatedAt   time.Time
}

// Duration returns the trip length in days. A trip from 2024-06-01 to
// 2024-06-03 has duration 2 and spans 3 calendar days.
func (t Trip) Duration() int {
	return int(t.EndDate.Sub(t.StartDate).Hours() / 24)
}

// Days returns every calendar date of the trip from StartDate to EndDate
// inclusive, in order. One Activity advice record is created per entry.
func (t Trip) Days() []time.Time {
	days := make([]time.Time, 0, t.Duration()+1)
	for d := t.StartDate; !d.After(t.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// TripDetail is a trip together with its child collections, as returned by
// the retrieve endpoint. Weather is ordered by timestamp, Advises by ForDate.
type TripDetail struct {
	Trip
	Weather []WeatherPoint
	Advises []AdviseRecord
}
