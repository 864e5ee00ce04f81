package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// DestinationRepo defines the persistence operations for geocoded
// destinations. Rows double as a geocoding cache keyed by
// (city, country, zip_code).
type DestinationRepo interface {
	// Create inserts a new destination and returns the persisted record.
	// Returns domain.ErrConflict if the address is already stored.
	Create(ctx context.Context, dest domain.Destination) (domain.Destination, error)

	// GetByAddress retrieves the destination matching the exact
	// (city, country, zipCode) triple. Returns domain.ErrNotFound when the
	// address has never been resolved.
	GetByAddress(ctx context.Context, city, country, zipCode string) (domain.Destination, error)
}

type pgDestinationRepo struct {
	db db
}

// NewDestinationRepo constructs a DestinationRepo backed by the provided db
// connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx for
// rollback isolation.
func NewDestinationRepo(db db) DestinationRepo {
	return &pgDestinationRepo{db: db}
}

func (r *pgDestinationRepo) Create(ctx context.Context, dest domain.Destination) (domain.Destination, error) {
	const q = `
		INSERT INTO destinations (city, country, zip_code, latitude, longitude, timezone)
		VALUES (@city, @country, @zip_code, @latitude, @longitude, @timezone)
		RETURNING id, city, country, zip_code, latitude, longitude, timezone, created_at`

	args := pgx.NamedArgs{
		"city":      dest.City,
		"country":   dest.Country,
		"zip_code":  dest.ZipCode,
		"latitude":  dest.Latitude,
		"longitude": dest.Longitude,
		"timezone":  dest.Timezone,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanDestination(row)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("repo.DestinationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgDestinationRepo) GetByAddress(ctx context.Context, city, country, zipCode string) (domain.Destination, error) {
	const q = `
		SELECT id, city, country, zip_code, latitude, longitude, timezone, created_at
		FROM destinations
		WHERE city = @city AND country = @country AND zip_code = @zip_code`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"city":     city,
		"country":  country,
		"zip_code": zipCode,
	})
	result, err := scanDestination(row)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("repo.DestinationRepo.GetByAddress: %w", err)
	}
	return result, nil
}

// scanDestination maps a single database row into a domain.Destination.
func scanDestination(s scanner) (domain.Destination, error) {
	var (
		d  domain.Destination
		id pgtype.UUID
	)

	err := s.Scan(&id, &d.City, &d.Country, &d.ZipCode, &d.Latitude, &d.Longitude, &d.Timezone, &d.CreatedAt)
	if err != nil {
		return domain.Destination{}, mapPgError(err)
	}

	d.ID = uuid.UUID(id.Bytes)
	return d, nil
}
