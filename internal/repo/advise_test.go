package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// createActivity inserts a Pending Activity record for the given day offset.
func createActivity(t *testing.T, tx pgx.Tx, trip domain.Trip, dayOffset int) domain.AdviseRecord {
	t.Helper()
	forDate := trip.StartDate.AddDate(0, 0, dayOffset)
	rec, err := repo.NewAdviseRepo(tx).Create(context.Background(), domain.AdviseRecord{
		TripID:  trip.ID,
		Kind:    domain.KindActivity,
		ForDate: &forDate,
	})
	require.NoError(t, err)
	return rec
}

func TestAdviseRepo_Create(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)

	rec := createActivity(t, tx, trip, 0)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, trip.ID, rec.TripID)
	assert.Equal(t, domain.KindActivity, rec.Kind)
	// Unset state defaults to Pending.
	assert.Equal(t, domain.StatePending, rec.State)
	assert.Empty(t, rec.Advice)
	require.NotNil(t, rec.ForDate)
	assert.True(t, rec.ForDate.Equal(trip.StartDate))
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestAdviseRepo_Create_TipWithoutDate(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)

	rec, err := repo.NewAdviseRepo(tx).Create(context.Background(), domain.AdviseRecord{
		TripID: trip.ID,
		Kind:   domain.KindTip,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.KindTip, rec.Kind)
	assert.Nil(t, rec.ForDate, "tip records may span the whole trip")
}

func TestAdviseRepo_GetByID_NotFound(t *testing.T) {
	r := repo.NewAdviseRepo(newTestTx(t))

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdviseRepo_ListByTrip_Ordering(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewAdviseRepo(tx)
	ctx := context.Background()

	// Insert out of date order, plus a dateless tip.
	day2 := createActivity(t, tx, trip, 2)
	day0 := createActivity(t, tx, trip, 0)
	tip, err := r.Create(ctx, domain.AdviseRecord{TripID: trip.ID, Kind: domain.KindTip})
	require.NoError(t, err)
	day1 := createActivity(t, tx, trip, 1)

	got, err := r.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, day0.ID, got[0].ID)
	assert.Equal(t, day1.ID, got[1].ID)
	assert.Equal(t, day2.ID, got[2].ID)
	// NULL for_date sorts last.
	assert.Equal(t, tip.ID, got[3].ID)
}

func TestAdviseRepo_Complete(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewAdviseRepo(tx)
	ctx := context.Background()

	rec := createActivity(t, tx, trip, 0)

	got, err := r.Complete(ctx, rec.ID, "Visit the Gulbenkian museum.")

	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, got.State)
	assert.Equal(t, "Visit the Gulbenkian museum.", got.Advice)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	// Kind and date never change on completion.
	assert.Equal(t, rec.Kind, got.Kind)
	require.NotNil(t, got.ForDate)
	assert.True(t, got.ForDate.Equal(*rec.ForDate))
}

func TestAdviseRepo_Complete_OverwritesText(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewAdviseRepo(tx)
	ctx := context.Background()

	rec := createActivity(t, tx, trip, 0)
	_, err := r.Complete(ctx, rec.ID, "first version")
	require.NoError(t, err)

	got, err := r.Complete(ctx, rec.ID, "second version")

	require.NoError(t, err)
	assert.Equal(t, "second version", got.Advice)
	assert.Equal(t, domain.StateCompleted, got.State)
}

func TestAdviseRepo_Fail(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewAdviseRepo(tx)

	rec := createActivity(t, tx, trip, 0)

	got, err := r.Fail(context.Background(), rec.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	assert.Empty(t, got.Advice)
}

func TestAdviseRepo_ListCompletedActivities(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewAdviseRepo(tx)
	ctx := context.Background()

	day0 := createActivity(t, tx, trip, 0)
	day1 := createActivity(t, tx, trip, 1)
	day2 := createActivity(t, tx, trip, 2)

	_, err := r.Complete(ctx, day0.ID, "castle")
	require.NoError(t, err)
	_, err = r.Complete(ctx, day2.ID, "beach")
	require.NoError(t, err)
	_, err = r.Fail(ctx, day1.ID)
	require.NoError(t, err)

	// A completed tip must not show up among activities.
	tip, err := r.Create(ctx, domain.AdviseRecord{TripID: trip.ID, Kind: domain.KindTip})
	require.NoError(t, err)
	_, err = r.Complete(ctx, tip.ID, "pack a raincoat")
	require.NoError(t, err)

	got, err := r.ListCompletedActivities(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day0.ID, got[0].ID)
	assert.Equal(t, day2.ID, got[1].ID)
	assert.Equal(t, "castle", got[0].Advice)
}

func TestAdviseRepo_Create_RejectsUnknownKind(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)

	forDate := trip.StartDate
	_, err := repo.NewAdviseRepo(tx).Create(context.Background(), domain.AdviseRecord{
		TripID:  trip.ID,
		Kind:    domain.AdviseKind("sightseeing"),
		ForDate: &forDate,
	})

	assert.Error(t, err, "the check constraint on kind must reject unknown values")
}
