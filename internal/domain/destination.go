package domain

import (
	"time"

	"github.com/google/uuid"
)

// Destination is a geocoded trip target. Rows are unique per
// (city, country, zip_code) and act as a geocoding cache: a second trip to
// the same address reuses the stored coordinates and timezone instead of
// calling the resolvers again.
type Destination struct {
	ID        uuid.UUID
	City      string
	Country   string
	ZipCode   string // "" when the request carried no zip code
	Latitude  float64
	Longitude float64
	Timezone  string // IANA name, e.g. "Europe/Lisbon"
	CreatedAt time.Time
}

// Address returns the destination formatted for a geocoding query,
// zip code first when present: "1000-001, Lisbon, Portugal".
func (d Destination) Address() string {
	base := d.City + ", " + d.Country
	if d.ZipCode != "" {
		return d.ZipCode + ", " + base
	}
	return base
}
