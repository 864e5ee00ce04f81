package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/metrics"
	"github.com/pkordes/trip-planner/internal/queue"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ChatProvider is the advise worker's view of the AI completion client.
type ChatProvider interface {
	// CompleteChat sends the ordered system prompts and returns the
	// generated text.
	CompleteChat(ctx context.Context, systemPrompts []string) (string, error)
}

// AdviseWorker consumes Pending advice records and generates their text.
// Only Activity records are processed today; Tip records are acknowledged
// untouched (no generation rule exists for them yet).
//
// On success the record moves to Completed with the generated text. On
// failure the record is dead-lettered with the reason and moved to Failed;
// the state exists for exactly this path, and leaving failed records Pending
// forever would make them indistinguishable from work still in the queue.
//
// Generation is idempotent in the overwrite sense: re-running a Completed
// record replaces its text and bumps updated_at, leaving kind, for_date and
// trip untouched. Under normal operation records are dispatched once, at
// creation.
//
// The "prior activities" prompt context is best-effort: with records
// dispatched to parallel workers, a concurrently generated sibling may be
// missing from the list. Strict day-by-day ordering would need one in-flight
// record per trip, which today's single-worker default provides in practice.
type AdviseWorker struct {
	queue   *queue.TaskQueue[domain.AdviseRecord]
	dead    *queue.DeadLetterSink[domain.AdviseRecord]
	chat    ChatProvider
	trips   repo.TripRepo
	weather repo.WeatherRepo
	advises repo.AdviseRepo
	prompts *PromptBuilder
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdviseWorker wires a worker to its queue, sink, provider and stores.
// timeout bounds each completion call; <= 0 defaults to 90s.
func NewAdviseWorker(
	q *queue.TaskQueue[domain.AdviseRecord],
	dead *queue.DeadLetterSink[domain.AdviseRecord],
	chat ChatProvider,
	trips repo.TripRepo,
	weather repo.WeatherRepo,
	advises repo.AdviseRepo,
	prompts *PromptBuilder,
	timeout time.Duration,
) *AdviseWorker {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &AdviseWorker{
		queue:   q,
		dead:    dead,
		chat:    chat,
		trips:   trips,
		weather: weather,
		advises: advises,
		prompts: prompts,
		timeout: timeout,
		logger:  slog.Default(),
	}
}

// Run consumes the advise queue until it is closed and drained.
func (w *AdviseWorker) Run(ctx context.Context) {
	for {
		rec, ok := w.queue.Dequeue()
		if !ok {
			return
		}
		w.process(ctx, rec)
		w.queue.Ack()
	}
}

func (w *AdviseWorker) process(ctx context.Context, rec domain.AdviseRecord) {
	log := w.logger.With("advise_id", rec.ID, "trip_id", rec.TripID, "queue", w.queue.Name())

	if rec.Kind != domain.KindActivity {
		metrics.ItemsProcessed.WithLabelValues(w.queue.Name(), metrics.ResultSkipped).Inc()
		log.Debug("skipping non-activity record", "kind", rec.Kind)
		return
	}

	if err := w.generate(ctx, rec); err != nil {
		w.dead.Record(rec, err.Error())
		if _, failErr := w.advises.Fail(ctx, rec.ID); failErr != nil {
			log.Error("marking record failed", "error", failErr)
		}
		metrics.ItemsProcessed.WithLabelValues(w.queue.Name(), metrics.ResultDeadLetter).Inc()
		log.Error("advice generation failed", "error", err)
		return
	}

	metrics.ItemsProcessed.WithLabelValues(w.queue.Name(), metrics.ResultOK).Inc()
	log.Info("advice generated")
}

// generate gathers the record's context, renders the three-part prompt,
// calls the provider, and persists the result.
func (w *AdviseWorker) generate(ctx context.Context, rec domain.AdviseRecord) error {
	trip, err := w.trips.GetByID(ctx, rec.TripID)
	if err != nil {
		return fmt.Errorf("loading trip: %w", err)
	}

	series, err := w.weather.ListByTrip(ctx, trip.ID)
	if err != nil {
		return fmt.Errorf("loading weather series: %w", err)
	}

	subset, date, dayNumber, err := w.dayWeather(ctx, trip, rec)
	if err != nil {
		return err
	}

	prior, err := w.advises.ListCompletedActivities(ctx, trip.ID)
	if err != nil {
		return fmt.Errorf("loading prior advice: %w", err)
	}
	// A re-run of an already-Completed record would otherwise quote itself.
	prior = withoutRecord(prior, rec.ID)

	identity, err := w.prompts.Identity()
	if err != nil {
		return err
	}
	tripPrompt, err := w.prompts.TripContext(trip, series)
	if err != nil {
		return err
	}
	dayPrompt, err := w.prompts.DayContext(trip, date, dayNumber, subset, prior)
	if err != nil {
		return err
	}

	chatCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	text, err := w.chat.CompleteChat(chatCtx, []string{identity, tripPrompt, dayPrompt})
	if err != nil {
		return fmt.Errorf("completing chat: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("provider returned an empty completion")
	}

	if _, err := w.advises.Complete(ctx, rec.ID, text); err != nil {
		return fmt.Errorf("persisting advice: %w", err)
	}
	return nil
}

// dayWeather returns the record's weather context: the samples of its
// calendar day in the destination timezone, or the full series when ForDate
// is unset (trip-wide records).
func (w *AdviseWorker) dayWeather(ctx context.Context, trip domain.Trip, rec domain.AdviseRecord) ([]domain.WeatherPoint, time.Time, int, error) {
	if rec.ForDate == nil {
		full, err := w.weather.ListByTrip(ctx, trip.ID)
		if err != nil {
			return nil, time.Time{}, 0, fmt.Errorf("loading weather series: %w", err)
		}
		return full, trip.StartDate, 0, nil
	}

	loc, err := time.LoadLocation(trip.Destination.Timezone)
	if err != nil {
		return nil, time.Time{}, 0, fmt.Errorf("loading destination timezone %q: %w", trip.Destination.Timezone, err)
	}

	d := *rec.ForDate
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)

	subset, err := w.weather.ListRange(ctx, trip.ID, from, to)
	if err != nil {
		return nil, time.Time{}, 0, fmt.Errorf("loading day weather: %w", err)
	}
	return subset, d, rec.DayNumber(trip.StartDate), nil
}

func withoutRecord(records []domain.AdviseRecord, id uuid.UUID) []domain.AdviseRecord {
	out := records[:0]
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
