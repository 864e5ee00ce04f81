// Package pipeline implements the asynchronous fulfillment pipeline that
// runs after a trip is created: a weather worker fetches and persists the
// hourly forecast, then seeds one Pending advice record per trip day; an
// advise worker generates the text for each record. Workers consume typed
// in-process queues and capture unrecoverable item failures in dead-letter
// sinks; an error in one item never blocks or corrupts sibling work.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/metrics"
	"github.com/pkordes/trip-planner/internal/queue"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ForecastProvider is the weather worker's view of the forecast client.
type ForecastProvider interface {
	// FetchForecast returns one sample per hour for the inclusive
	// [start, end] date range, localized to the IANA timezone tz.
	FetchForecast(ctx context.Context, lat, lon float64, tz string, start, end time.Time) ([]domain.HourlySample, error)
}

// AdviseNotifier receives each advice record the weather worker creates.
// In production this is the Orchestrator, which enqueues Pending records
// for the advise worker.
type AdviseNotifier interface {
	AdviseCreated(rec domain.AdviseRecord)
}

// WeatherWorker consumes trip-creation events. For each trip it fetches the
// forecast, bulk-persists the weather series, and creates the trip's advice
// set: exactly duration+1 Pending Activity records, one per calendar day.
// Weather rows are persisted before any advice record exists, so no advice
// generation can ever observe a trip without weather context.
//
// Any failure dead-letters the whole trip and creates no advice records:
// weather and advice seeding are all-or-nothing at this stage. The queue ack
// happens unconditionally, so a bad trip never wedges the loop.
//
// Processing is commutative across distinct trips; N workers may share the
// queue. Nothing guards two workers processing the same trip; producers
// enqueue each trip exactly once, and the (trip_id, ts) uniqueness
// constraint is the persistence backstop.
type WeatherWorker struct {
	queue    *queue.TaskQueue[domain.Trip]
	dead     *queue.DeadLetterSink[domain.Trip]
	forecast ForecastProvider
	weather  repo.WeatherRepo
	advises  repo.AdviseRepo
	notify   AdviseNotifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewWeatherWorker wires a worker to its queue, sink, provider and stores.
// timeout bounds each forecast call; <= 0 defaults to 30s.
func NewWeatherWorker(
	q *queue.TaskQueue[domain.Trip],
	dead *queue.DeadLetterSink[domain.Trip],
	forecast ForecastProvider,
	weather repo.WeatherRepo,
	advises repo.AdviseRepo,
	notify AdviseNotifier,
	timeout time.Duration,
) *WeatherWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WeatherWorker{
		queue:    q,
		dead:     dead,
		forecast: forecast,
		weather:  weather,
		advises:  advises,
		notify:   notify,
		timeout:  timeout,
		logger:   slog.Default(),
	}
}

// Run consumes the trip queue until it is closed and drained.
func (w *WeatherWorker) Run(ctx context.Context) {
	for {
		trip, ok := w.queue.Dequeue()
		if !ok {
			return
		}
		w.process(ctx, trip)
		w.queue.Ack()
	}
}

func (w *WeatherWorker) process(ctx context.Context, trip domain.Trip) {
	log := w.logger.With("trip_id", trip.ID, "queue", w.queue.Name())

	if err := w.fulfill(ctx, trip); err != nil {
		w.dead.Record(trip, err.Error())
		metrics.ItemsProcessed.WithLabelValues(w.queue.Name(), metrics.ResultDeadLetter).Inc()
		log.Error("weather fulfillment failed", "error", err)
		return
	}

	metrics.ItemsProcessed.WithLabelValues(w.queue.Name(), metrics.ResultOK).Inc()
	log.Info("weather series persisted, advice set created", "days", len(trip.Days()))
}

// fulfill fetches, validates, persists, and seeds advice. Returning an error
// from any step dead-letters the trip.
func (w *WeatherWorker) fulfill(ctx context.Context, trip domain.Trip) error {
	fetchCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	samples, err := w.forecast.FetchForecast(fetchCtx,
		trip.Destination.Latitude, trip.Destination.Longitude,
		trip.Destination.Timezone, trip.StartDate, trip.EndDate)
	if err != nil {
		return fmt.Errorf("fetching forecast: %w", err)
	}

	points := make([]domain.WeatherPoint, len(samples))
	for i, s := range samples {
		condition, err := domain.ConditionForCode(s.WeatherCode)
		if err != nil {
			return fmt.Errorf("validating sample at %s: %w", s.Time.Format(time.RFC3339), err)
		}
		points[i] = domain.WeatherPoint{
			TripID:      trip.ID,
			Time:        s.Time,
			Temperature: s.Temperature,
			Code:        s.WeatherCode,
			Condition:   condition,
		}
	}

	if err := w.weather.CreateSeries(ctx, trip.ID, points); err != nil {
		return fmt.Errorf("persisting weather series: %w", err)
	}

	return w.createAdviseSet(ctx, trip)
}

// createAdviseSet inserts one Pending Activity record per calendar day of
// the trip and hands each to the notifier, in date order. This runs strictly
// after CreateSeries so the ordering contract between weather and advice
// generation holds even with parallel advise workers.
func (w *WeatherWorker) createAdviseSet(ctx context.Context, trip domain.Trip) error {
	for _, day := range trip.Days() {
		forDate := day
		rec, err := w.advises.Create(ctx, domain.AdviseRecord{
			TripID:  trip.ID,
			Kind:    domain.KindActivity,
			ForDate: &forDate,
			State:   domain.StatePending,
		})
		if err != nil {
			return fmt.Errorf("creating advice record for %s: %w", day.Format("2006-01-02"), err)
		}
		w.notify.AdviseCreated(rec)
	}
	return nil
}
