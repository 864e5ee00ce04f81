package provider

import (
	"fmt"

	"github.com/ringsaturn/tzf"
)

// TimezoneFinder maps coordinates to IANA timezone names using tzf's
// embedded polygon data. Lookups are local and cheap; the finder itself is
// expensive to build, so construct it once in main and share it.
type TimezoneFinder struct {
	finder tzf.F
}

// NewTimezoneFinder builds the finder from the bundled timezone shapes.
func NewTimezoneFinder() (*TimezoneFinder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("timezone: building finder: %w", err)
	}
	return &TimezoneFinder{finder: f}, nil
}

// Resolve returns the IANA timezone name for the given coordinates.
// Coordinates outside any known zone (open ocean, bad input) are an error.
func (t *TimezoneFinder) Resolve(lat, lon float64) (string, error) {
	name := t.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return "", fmt.Errorf("timezone: no zone found for lat=%f lon=%f", lat, lon)
	}
	return name, nil
}
