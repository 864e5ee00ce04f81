package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/trip-planner/internal/domain"
)

// AdviseRepo defines the persistence operations for advice records.
type AdviseRepo interface {
	// Create inserts a new record (normally Pending) and returns it with
	// DB-generated id and timestamps populated.
	Create(ctx context.Context, rec domain.AdviseRecord) (domain.AdviseRecord, error)

	// GetByID retrieves a single record.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.AdviseRecord, error)

	// ListByTrip returns all records for a trip ordered by for_date
	// (trip-wide records with NULL for_date come last), then created_at.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.AdviseRecord, error)

	// ListCompletedActivities returns the trip's Completed Activity records
	// ordered by for_date. The advise worker feeds these into the prompt as
	// prior context for later days.
	ListCompletedActivities(ctx context.Context, tripID uuid.UUID) ([]domain.AdviseRecord, error)

	// Complete stores the generated text and moves the record to Completed,
	// bumping updated_at. Calling it again on an already-Completed record
	// overwrites the text; kind, for_date and trip never change.
	Complete(ctx context.Context, id uuid.UUID, text string) (domain.AdviseRecord, error)

	// Fail moves the record to Failed, bumping updated_at. The text is left
	// as-is (normally empty).
	Fail(ctx context.Context, id uuid.UUID) (domain.AdviseRecord, error)
}

type pgAdviseRepo struct {
	db db
}

// NewAdviseRepo constructs an AdviseRepo backed by the provided db connection.
func NewAdviseRepo(db db) AdviseRepo {
	return &pgAdviseRepo{db: db}
}

const adviseColumns = `id, trip_id, kind, for_date, state, advice, created_at, updated_at`

func (r *pgAdviseRepo) Create(ctx context.Context, rec domain.AdviseRecord) (domain.AdviseRecord, error) {
	const q = `
		INSERT INTO advise_records (trip_id, kind, for_date, state)
		VALUES (@trip_id, @kind, @for_date, @state)
		RETURNING ` + adviseColumns

	state := rec.State
	if state == "" {
		state = domain.StatePending
	}
	args := pgx.NamedArgs{
		"trip_id":  rec.TripID,
		"kind":     string(rec.Kind),
		"for_date": rec.ForDate, // nil becomes NULL
		"state":    string(state),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAdvise(row)
	if err != nil {
		return domain.AdviseRecord{}, fmt.Errorf("repo.AdviseRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgAdviseRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.AdviseRecord, error) {
	const q = `SELECT ` + adviseColumns + ` FROM advise_records WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanAdvise(row)
	if err != nil {
		return domain.AdviseRecord{}, fmt.Errorf("repo.AdviseRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgAdviseRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.AdviseRecord, error) {
	const q = `
		SELECT ` + adviseColumns + `
		FROM advise_records
		WHERE trip_id = @trip_id
		ORDER BY for_date NULLS LAST, created_at`

	return r.list(ctx, q, pgx.NamedArgs{"trip_id": tripID}, "ListByTrip")
}

func (r *pgAdviseRepo) ListCompletedActivities(ctx context.Context, tripID uuid.UUID) ([]domain.AdviseRecord, error) {
	const q = `
		SELECT ` + adviseColumns + `
		FROM advise_records
		WHERE trip_id = @trip_id AND kind = 'activity' AND state = 'completed'
		ORDER BY for_date`

	return r.list(ctx, q, pgx.NamedArgs{"trip_id": tripID}, "ListCompletedActivities")
}

func (r *pgAdviseRepo) Complete(ctx context.Context, id uuid.UUID, text string) (domain.AdviseRecord, error) {
	const q = `
		UPDATE advise_records
		SET advice     = @advice,
		    state      = 'completed',
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + adviseColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "advice": text})
	result, err := scanAdvise(row)
	if err != nil {
		return domain.AdviseRecord{}, fmt.Errorf("repo.AdviseRepo.Complete: %w", err)
	}
	return result, nil
}

func (r *pgAdviseRepo) Fail(ctx context.Context, id uuid.UUID) (domain.AdviseRecord, error) {
	const q = `
		UPDATE advise_records
		SET state      = 'failed',
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + adviseColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanAdvise(row)
	if err != nil {
		return domain.AdviseRecord{}, fmt.Errorf("repo.AdviseRepo.Fail: %w", err)
	}
	return result, nil
}

func (r *pgAdviseRepo) list(ctx context.Context, q string, args pgx.NamedArgs, op string) ([]domain.AdviseRecord, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.AdviseRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var records []domain.AdviseRecord
	for rows.Next() {
		rec, err := scanAdvise(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AdviseRepo.%s: scan: %w", op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AdviseRepo.%s: rows: %w", op, err)
	}
	return records, nil
}

// scanAdvise maps a single database row into a domain.AdviseRecord.
// It handles the UUID and nullable for_date conversions.
func scanAdvise(s scanner) (domain.AdviseRecord, error) {
	var (
		rec     domain.AdviseRecord
		id      pgtype.UUID
		tripID  pgtype.UUID
		kind    string
		state   string
		forDate pgtype.Date
	)

	err := s.Scan(&id, &tripID, &kind, &forDate, &state, &rec.Advice, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.AdviseRecord{}, mapPgError(err)
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.TripID = uuid.UUID(tripID.Bytes)
	rec.Kind = domain.AdviseKind(kind)
	rec.State = domain.AdviseState(state)
	if forDate.Valid {
		fd := forDate.Time
		rec.ForDate = &fd
	}
	return rec, nil
}
