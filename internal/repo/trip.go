package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service and pipeline layers depend on this interface, not the concrete
// Postgres implementation, which allows them to be unit-tested with mocks.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record with the
	// destination embedded (id and created_at are DB-generated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip with its destination joined in.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// Delete removes a trip by ID; weather samples and advice records go
	// with it via ON DELETE CASCADE. Returns domain.ErrNotFound if it does
	// not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `
	t.id, t.start_date, t.end_date, t.preferences, t.created_at,
	d.id, d.city, d.country, d.zip_code, d.latitude, d.longitude, d.timezone, d.created_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO trips (destination_id, start_date, end_date, preferences)
			VALUES (@destination_id, @start_date, @end_date, @preferences)
			RETURNING id, destination_id, start_date, end_date, preferences, created_at
		)
		SELECT ` + tripColumns + `
		FROM inserted t
		JOIN destinations d ON d.id = t.destination_id`

	args := pgx.NamedArgs{
		"destination_id": trip.Destination.ID,
		"start_date":     trip.StartDate,
		"end_date":       trip.EndDate,
		"preferences":    trip.Preferences,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN destinations d ON d.id = t.destination_id
		WHERE t.id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTrip maps a trip row joined with its destination into a domain.Trip.
// Dates are stored as Postgres date columns and come back at midnight UTC.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t      domain.Trip
		id     pgtype.UUID
		destID pgtype.UUID
		start  pgtype.Date
		end    pgtype.Date
	)

	err := s.Scan(
		&id, &start, &end, &t.Preferences, &t.CreatedAt,
		&destID, &t.Destination.City, &t.Destination.Country, &t.Destination.ZipCode,
		&t.Destination.Latitude, &t.Destination.Longitude, &t.Destination.Timezone,
		&t.Destination.CreatedAt,
	)
	if err != nil {
		return domain.Trip{}, mapPgError(err)
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Destination.ID = uuid.UUID(destID.Bytes)
	t.StartDate = start.Time
	t.EndDate = end.Time
	return t, nil
}
