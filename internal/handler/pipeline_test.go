package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/pipeline"
	"github.com/pkordes/trip-planner/internal/queue"
)

func TestGetPipelineStatus(t *testing.T) {
	tripID := uuid.New()
	adviseID := uuid.New()
	forDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	at := time.Now().UTC()

	pipe := &mockPipelineInspector{status: pipeline.Status{
		Queues: []pipeline.QueueStatus{
			{Name: "trip_weather", Depth: 2, InFlight: 1},
			{Name: "trip_advise", Depth: 0, InFlight: 0},
		},
		TripDeadLetters: []queue.Entry[domain.Trip]{
			{
				Item:   domain.Trip{ID: tripID, Destination: domain.Destination{City: "Lisbon"}},
				Reason: "open-meteo: unexpected status 500",
				At:     at,
			},
		},
		AdviseDeadLetters: []queue.Entry[domain.AdviseRecord]{
			{
				Item:   domain.AdviseRecord{ID: adviseID, TripID: tripID, ForDate: &forDate},
				Reason: "completing chat: model unavailable",
				At:     at,
			},
		},
	}}
	h := newHTTPHandler(&mockTripServicer{}, pipe)

	req := httptest.NewRequest(http.MethodGet, "/pipeline/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)

	queues, ok := body["queues"].([]any)
	require.True(t, ok)
	require.Len(t, queues, 2)
	first := queues[0].(map[string]any)
	assert.Equal(t, "trip_weather", first["name"])
	assert.Equal(t, float64(2), first["depth"])
	assert.Equal(t, float64(1), first["in_flight"])

	tripDead, ok := body["trip_dead_letters"].([]any)
	require.True(t, ok)
	require.Len(t, tripDead, 1)
	entry := tripDead[0].(map[string]any)
	assert.Equal(t, tripID.String(), entry["trip_id"])
	assert.Equal(t, "Lisbon", entry["city"])
	assert.Contains(t, entry["reason"], "unexpected status 500")

	adviseDead, ok := body["advise_dead_letters"].([]any)
	require.True(t, ok)
	require.Len(t, adviseDead, 1)
	aentry := adviseDead[0].(map[string]any)
	assert.Equal(t, adviseID.String(), aentry["advise_id"])
	assert.Equal(t, "2025-06-02", aentry["for_date"])
}

func TestGetPipelineStatus_Empty(t *testing.T) {
	h := newHTTPHandler(&mockTripServicer{}, &mockPipelineInspector{status: pipeline.Status{
		Queues: []pipeline.QueueStatus{
			{Name: "trip_weather"},
			{Name: "trip_advise"},
		},
	}})

	req := httptest.NewRequest(http.MethodGet, "/pipeline/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Empty logs must serialize as [] so dashboards can consume them blindly.
	assert.Contains(t, rec.Body.String(), `"trip_dead_letters":[]`)
	assert.Contains(t, rec.Body.String(), `"advise_dead_letters":[]`)
}
