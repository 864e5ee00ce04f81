package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// hourlyPoints builds n consecutive hourly samples starting at start.
func hourlyPoints(trip domain.Trip, start time.Time, n int) []domain.WeatherPoint {
	points := make([]domain.WeatherPoint, n)
	for i := range points {
		points[i] = domain.WeatherPoint{
			TripID:      trip.ID,
			Time:        start.Add(time.Duration(i) * time.Hour),
			Temperature: 15.0 + float64(i),
			Code:        0,
			Condition:   "Clear",
		}
	}
	return points
}

func TestWeatherRepo_CreateSeries_and_ListByTrip(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewWeatherRepo(tx)
	ctx := context.Background()

	start := trip.StartDate
	require.NoError(t, r.CreateSeries(ctx, trip.ID, hourlyPoints(trip, start, 48)))

	got, err := r.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, got, 48)
	assert.True(t, got[0].Time.Equal(start), "rows come back ordered by timestamp")
	assert.True(t, got[47].Time.Equal(start.Add(47*time.Hour)))
	assert.Equal(t, 15.0, got[0].Temperature)
	assert.Equal(t, "Clear", got[0].Condition)
	assert.NotZero(t, got[0].ID)
}

func TestWeatherRepo_CreateSeries_DuplicateTimestamp(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewWeatherRepo(tx)
	ctx := context.Background()

	require.NoError(t, r.CreateSeries(ctx, trip.ID, hourlyPoints(trip, trip.StartDate, 3)))

	// Same (trip, ts) pairs again: the uniqueness backstop must fire.
	err := r.CreateSeries(ctx, trip.ID, hourlyPoints(trip, trip.StartDate, 3))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestWeatherRepo_ListRange(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)
	r := repo.NewWeatherRepo(tx)
	ctx := context.Background()

	// 3 full days of hourly samples.
	require.NoError(t, r.CreateSeries(ctx, trip.ID, hourlyPoints(trip, trip.StartDate, 72)))

	// Day two only: from is inclusive, to is exclusive.
	from := trip.StartDate.AddDate(0, 0, 1)
	to := trip.StartDate.AddDate(0, 0, 2)
	got, err := r.ListRange(ctx, trip.ID, from, to)

	require.NoError(t, err)
	require.Len(t, got, 24)
	assert.True(t, got[0].Time.Equal(from))
	assert.True(t, got[23].Time.Equal(to.Add(-time.Hour)))
}

func TestWeatherRepo_ListByTrip_Empty(t *testing.T) {
	tx := newTestTx(t)
	trip := createTrip(t, tx)

	got, err := repo.NewWeatherRepo(tx).ListByTrip(context.Background(), trip.ID)

	require.NoError(t, err)
	assert.Empty(t, got)
}
