package pipeline_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/pipeline"
	"github.com/pkordes/trip-planner/internal/repo"
)

// The pipeline tests run the real workers and queues against these in-memory
// stores and canned providers. Only the database and the two HTTP providers
// are faked; queue semantics, worker loops, and prompt building are the real
// code.

// memStore is a shared in-memory stand-in for the three repos the pipeline
// touches. One mutex guards everything; the pipeline's own concurrency is
// what's under test, not the store's.
type memStore struct {
	mu      sync.Mutex
	trips   map[uuid.UUID]domain.Trip
	weather map[uuid.UUID][]domain.WeatherPoint
	advises map[uuid.UUID]domain.AdviseRecord
}

func newMemStore() *memStore {
	return &memStore{
		trips:   make(map[uuid.UUID]domain.Trip),
		weather: make(map[uuid.UUID][]domain.WeatherPoint),
		advises: make(map[uuid.UUID]domain.AdviseRecord),
	}
}

func (s *memStore) addTrip(trip domain.Trip) domain.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	s.trips[trip.ID] = trip
	return trip
}

// --- repo.TripRepo ----------------------------------------------------------

func (s *memStore) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return s.addTrip(trip), nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trip, ok := s.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return trip, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.trips, id)
	return nil
}

// --- repo.WeatherRepo -------------------------------------------------------

type weatherStore struct{ *memStore }

func (s weatherStore) CreateSeries(_ context.Context, tripID uuid.UUID, points []domain.WeatherPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[time.Time]bool, len(s.weather[tripID]))
	for _, p := range s.weather[tripID] {
		seen[p.Time] = true
	}
	for _, p := range points {
		if seen[p.Time] {
			return fmt.Errorf("weather sample exists: %w", domain.ErrConflict)
		}
	}
	s.weather[tripID] = append(s.weather[tripID], points...)
	return nil
}

func (s weatherStore) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.WeatherPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.WeatherPoint(nil), s.weather[tripID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (s weatherStore) ListRange(_ context.Context, tripID uuid.UUID, from, to time.Time) ([]domain.WeatherPoint, error) {
	all, _ := s.ListByTrip(context.Background(), tripID)
	var out []domain.WeatherPoint
	for _, p := range all {
		if !p.Time.Before(from) && p.Time.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- repo.AdviseRepo --------------------------------------------------------

type adviseStore struct{ *memStore }

func (s adviseStore) Create(_ context.Context, rec domain.AdviseRecord) (domain.AdviseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.New()
	if rec.State == "" {
		rec.State = domain.StatePending
	}
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	s.advises[rec.ID] = rec
	return rec, nil
}

func (s adviseStore) GetByID(_ context.Context, id uuid.UUID) (domain.AdviseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.advises[id]
	if !ok {
		return domain.AdviseRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s adviseStore) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.AdviseRecord, error) {
	return s.listWhere(tripID, func(domain.AdviseRecord) bool { return true }), nil
}

func (s adviseStore) ListCompletedActivities(_ context.Context, tripID uuid.UUID) ([]domain.AdviseRecord, error) {
	return s.listWhere(tripID, func(r domain.AdviseRecord) bool {
		return r.Kind == domain.KindActivity && r.State == domain.StateCompleted
	}), nil
}

func (s adviseStore) Complete(_ context.Context, id uuid.UUID, text string) (domain.AdviseRecord, error) {
	return s.transition(id, domain.StateCompleted, text)
}

func (s adviseStore) Fail(_ context.Context, id uuid.UUID) (domain.AdviseRecord, error) {
	return s.transition(id, domain.StateFailed, "")
}

func (s adviseStore) transition(id uuid.UUID, state domain.AdviseState, text string) (domain.AdviseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.advises[id]
	if !ok {
		return domain.AdviseRecord{}, domain.ErrNotFound
	}
	rec.State = state
	if text != "" {
		rec.Advice = text
	}
	rec.UpdatedAt = time.Now()
	s.advises[id] = rec
	return rec, nil
}

func (s adviseStore) listWhere(tripID uuid.UUID, keep func(domain.AdviseRecord) bool) []domain.AdviseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AdviseRecord
	for _, rec := range s.advises {
		if rec.TripID == tripID && keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].ForDate, out[j].ForDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
	return out
}

// compile-time checks against the real repo interfaces.
var (
	_ repo.TripRepo    = (*memStore)(nil)
	_ repo.WeatherRepo = weatherStore{}
	_ repo.AdviseRepo  = adviseStore{}
)

// --- providers --------------------------------------------------------------

// fakeForecast returns one sample per hour for the requested window, or the
// configured error. Setting badCodeAt injects an unknown WMO code at that
// timestamp.
type fakeForecast struct {
	mu        sync.Mutex
	calls     int
	err       error
	badCodeAt time.Time
}

func (f *fakeForecast) FetchForecast(_ context.Context, _, _ float64, tz string, start, end time.Time) ([]domain.HourlySample, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}

	var samples []domain.HourlySample
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 23, 0, 0, 0, loc)
	for ts := day; !ts.After(last); ts = ts.Add(time.Hour) {
		code := 0
		if f.badCodeAt.Equal(ts) {
			code = 999
		}
		samples = append(samples, domain.HourlySample{Time: ts, Temperature: 18.5, WeatherCode: code})
	}
	return samples, nil
}

func (f *fakeForecast) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeChat returns a per-call counter so tests can tell generations apart,
// and records every prompt list it was sent.
type fakeChat struct {
	mu      sync.Mutex
	calls   int
	err     error
	prompts [][]string
}

func (f *fakeChat) CompleteChat(_ context.Context, systemPrompts []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, systemPrompts)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("generated advice #%d", f.calls), nil
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeChat) sentPrompts() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.prompts...)
}

var (
	_ pipeline.ForecastProvider = (*fakeForecast)(nil)
	_ pipeline.ChatProvider     = (*fakeChat)(nil)
)
