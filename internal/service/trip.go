// Package service contains the business logic for the Trip Planner API.
// Services validate inputs, enforce business rules, and orchestrate repo and
// resolver calls. No SQL lives here; services depend on repo interfaces,
// not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// Trip duration bounds in days, matching the forecast window the weather
// provider serves reliably.
const (
	minDuration = 1
	maxDuration = 5
)

// GeocodeResolver turns a free-form address into decimal coordinates.
type GeocodeResolver interface {
	Resolve(ctx context.Context, address string) (lat, lon float64, err error)
}

// TimezoneResolver turns coordinates into an IANA timezone name.
type TimezoneResolver interface {
	Resolve(lat, lon float64) (string, error)
}

// TripNotifier receives the trip-created event that feeds the background
// pipeline. In production this is the pipeline orchestrator.
type TripNotifier interface {
	TripCreated(trip domain.Trip)
}

// NewTrip is the validated creation input.
type NewTrip struct {
	StartDate   time.Time
	Duration    int // days; EndDate = StartDate + Duration
	City        string
	Country     string
	ZipCode     string
	Preferences string
}

// TripService implements business logic for Trip operations.
type TripService struct {
	trips        repo.TripRepo
	destinations repo.DestinationRepo
	weather      repo.WeatherRepo
	advises      repo.AdviseRepo
	geocoder     GeocodeResolver
	timezones    TimezoneResolver
	notifier     TripNotifier
}

// NewTripService constructs a TripService with its repos and resolvers.
func NewTripService(
	trips repo.TripRepo,
	destinations repo.DestinationRepo,
	weather repo.WeatherRepo,
	advises repo.AdviseRepo,
	geocoder GeocodeResolver,
	timezones TimezoneResolver,
	notifier TripNotifier,
) *TripService {
	return &TripService{
		trips:        trips,
		destinations: destinations,
		weather:      weather,
		advises:      advises,
		geocoder:     geocoder,
		timezones:    timezones,
		notifier:     notifier,
	}
}

// Create validates the input, resolves the destination (cached by address),
// persists the trip, and fires the trip-created event exactly once. The
// event is the only pipeline trigger; nothing fires on later reads or child
// updates.
func (s *TripService) Create(ctx context.Context, in NewTrip) (domain.Trip, error) {
	if err := validateNewTrip(in); err != nil {
		return domain.Trip{}, err
	}

	dest, err := s.resolveDestination(ctx, in)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	trip, err := s.trips.Create(ctx, domain.Trip{
		Destination: dest,
		StartDate:   in.StartDate,
		EndDate:     in.StartDate.AddDate(0, 0, in.Duration),
		Preferences: in.Preferences,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	s.notifier.TripCreated(trip)
	return trip, nil
}

// GetByID returns a trip with its weather series and advice records nested.
// Collections are always non-nil so callers can safely range over them; a
// trip whose pipeline work dead-lettered simply has empty collections.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}

	weather, err := s.weather.ListByTrip(ctx, id)
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}

	advises, err := s.advises.ListByTrip(ctx, id)
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}

	if weather == nil {
		weather = []domain.WeatherPoint{}
	}
	if advises == nil {
		advises = []domain.AdviseRecord{}
	}
	return domain.TripDetail{Trip: trip, Weather: weather, Advises: advises}, nil
}

// resolveDestination returns the cached destination for the address or
// resolves and stores a new one. Resolution is idempotent: a concurrent
// create losing the unique-constraint race falls back to the winner's row.
func (s *TripService) resolveDestination(ctx context.Context, in NewTrip) (domain.Destination, error) {
	dest, err := s.destinations.GetByAddress(ctx, in.City, in.Country, in.ZipCode)
	if err == nil {
		return dest, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Destination{}, err
	}

	candidate := domain.Destination{
		City:    in.City,
		Country: in.Country,
		ZipCode: in.ZipCode,
	}

	lat, lon, err := s.geocoder.Resolve(ctx, candidate.Address())
	if err != nil {
		return domain.Destination{}, fmt.Errorf("resolving coordinates: %w", err)
	}
	tz, err := s.timezones.Resolve(lat, lon)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("resolving timezone: %w", err)
	}

	candidate.Latitude = lat
	candidate.Longitude = lon
	candidate.Timezone = tz

	created, err := s.destinations.Create(ctx, candidate)
	if errors.Is(err, domain.ErrConflict) {
		return s.destinations.GetByAddress(ctx, in.City, in.Country, in.ZipCode)
	}
	if err != nil {
		return domain.Destination{}, err
	}
	return created, nil
}

// validateNewTrip enforces the creation business rules.
//   - City and country must be non-empty (whitespace-only is rejected).
//   - Duration must be within [1, 5] days.
//   - StartDate must be set.
func validateNewTrip(in NewTrip) error {
	if strings.TrimSpace(in.City) == "" {
		return fmt.Errorf("%w: city is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Country) == "" {
		return fmt.Errorf("%w: country is required", domain.ErrValidation)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", domain.ErrValidation)
	}
	if in.Duration < minDuration || in.Duration > maxDuration {
		return fmt.Errorf("%w: duration must be between %d and %d days", domain.ErrValidation, minDuration, maxDuration)
	}
	return nil
}
