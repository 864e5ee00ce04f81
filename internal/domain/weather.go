package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// conditionByCode maps WMO weather interpretation codes to display names.
// Codes per https://gist.github.com/stellasphere/9490c195ed2b53c707087c8c2db4ec0c
var conditionByCode = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Cloudy",
	45: "Fog",
	48: "Rime Fog",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Heavy Drizzle",
	56: "Light Freezing Drizzle",
	57: "Freezing Drizzle",
	61: "Light Rain",
	63: "Rain",
	65: "Heavy Rain",
	66: "Light Freezing Rain",
	67: "Freezing Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	77: "Snow Grains",
	80: "Light Showers",
	81: "Showers",
	82: "Heavy Showers",
	85: "Light Snow Showers",
	86: "Snow Showers",
	95: "Thunderstorm",
	96: "Light Thunderstorms With Hail",
	99: "Thunderstorm With Hail",
}

// ConditionForCode resolves a WMO code to its display name.
// An unrecognized code is a hard error, never a silent default: the weather
// pipeline dead-letters the whole trip rather than persisting bad data.
func ConditionForCode(code int) (string, error) {
	name, ok := conditionByCode[code]
	if !ok {
		return "", fmt.Errorf("unknown WMO weather code %d", code)
	}
	return name, nil
}

// HourlySample is one raw forecast sample as returned by the weather
// provider, before code validation.
type HourlySample struct {
	Time        time.Time
	Temperature float64 // celsius
	WeatherCode int
}

// WeatherPoint is one persisted hourly forecast sample tied to a trip.
// Points are unique per (TripID, Time), bulk-created once by the weather
// worker, and never mutated afterwards.
type WeatherPoint struct {
	ID          int64
	TripID      uuid.UUID
	Time        time.Time
	Temperature float64
	Code        int
	Condition   string
	CreatedAt   time.Time
}
