package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// WeatherRepo defines the persistence operations for a trip's hourly
// weather series. Rows are written once, in bulk, and never mutated.
type WeatherRepo interface {
	// CreateSeries bulk-inserts the full hourly series for a trip.
	// Returns domain.ErrConflict if any (trip, timestamp) pair already
	// exists, the backstop against a trip being processed twice.
	CreateSeries(ctx context.Context, tripID uuid.UUID, points []domain.WeatherPoint) error

	// ListByTrip returns all samples for a trip ordered by timestamp.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.WeatherPoint, error)

	// ListRange returns the samples for a trip with from <= ts < to,
	// ordered by timestamp. Used to select one day's weather context.
	ListRange(ctx context.Context, tripID uuid.UUID, from, to time.Time) ([]domain.WeatherPoint, error)
}

type pgWeatherRepo struct {
	db db
}

// NewWeatherRepo constructs a WeatherRepo backed by the provided db connection.
func NewWeatherRepo(db db) WeatherRepo {
	return &pgWeatherRepo{db: db}
}

// CreateSeries uses the Postgres COPY protocol via pgx.CopyFrom: a trip
// carries up to 144 hourly rows and COPY is one round trip for all of them.
func (r *pgWeatherRepo) CreateSeries(ctx context.Context, tripID uuid.UUID, points []domain.WeatherPoint) error {
	rows := make([][]any, len(points))
	for i, p := range points {
		rows[i] = []any{tripID, p.Time, p.Temperature, p.Code, p.Condition}
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"weather_series"},
		[]string{"trip_id", "ts", "temperature", "code", "condition"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("repo.WeatherRepo.CreateSeries: %w", mapPgError(err))
	}
	return nil
}

func (r *pgWeatherRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.WeatherPoint, error) {
	const q = `
		SELECT id, trip_id, ts, temperature, code, condition, created_at
		FROM weather_series
		WHERE trip_id = @trip_id
		ORDER BY ts`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.WeatherRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	return collectPoints(rows, "ListByTrip")
}

func (r *pgWeatherRepo) ListRange(ctx context.Context, tripID uuid.UUID, from, to time.Time) ([]domain.WeatherPoint, error) {
	const q = `
		SELECT id, trip_id, ts, temperature, code, condition, created_at
		FROM weather_series
		WHERE trip_id = @trip_id AND ts >= @from AND ts < @to
		ORDER BY ts`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.WeatherRepo.ListRange: %w", err)
	}
	defer rows.Close()

	return collectPoints(rows, "ListRange")
}

func collectPoints(rows pgx.Rows, op string) ([]domain.WeatherPoint, error) {
	var points []domain.WeatherPoint
	for rows.Next() {
		p, err := scanWeatherPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.WeatherRepo.%s: scan: %w", op, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.WeatherRepo.%s: rows: %w", op, err)
	}
	return points, nil
}

func scanWeatherPoint(s scanner) (domain.WeatherPoint, error) {
	var (
		p      domain.WeatherPoint
		tripID pgtype.UUID
	)
	err := s.Scan(&p.ID, &tripID, &p.Time, &p.Temperature, &p.Code, &p.Condition, &p.CreatedAt)
	if err != nil {
		return domain.WeatherPoint{}, mapPgError(err)
	}
	p.TripID = uuid.UUID(tripID.Bytes)
	return p, nil
}
