package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/queue"
	"github.com/pkordes/trip-planner/internal/repo"
)

// Queue names, used as metric and log labels.
const (
	tripQueueName   = "trip_weather"
	adviseQueueName = "trip_advise"
)

// Config carries the pipeline's dependencies. Providers and repos are
// injected so tests can run the full pipeline against fakes.
type Config struct {
	Forecast ForecastProvider
	Chat     ChatProvider
	Trips    repo.TripRepo
	Weather  repo.WeatherRepo
	Advises  repo.AdviseRepo

	// ProviderTimeout bounds each external call. <= 0 uses per-worker
	// defaults.
	ProviderTimeout time.Duration

	// WorkersPerQueue is the number of consumer goroutines per queue.
	// <= 0 means 1, the reference behavior. The weather queue is safe at
	// any N; raising the advise queue's N trades the strictness of the
	// "prior activities" prompt context for throughput.
	WorkersPerQueue int
}

// Pipeline bundles the two queues, their dead-letter sinks, the workers
// consuming them, and the orchestrator producers use to feed them.
type Pipeline struct {
	Orchestrator *Orchestrator

	trips      *queue.TaskQueue[domain.Trip]
	advises    *queue.TaskQueue[domain.AdviseRecord]
	tripDead   *queue.DeadLetterSink[domain.Trip]
	adviseDead *queue.DeadLetterSink[domain.AdviseRecord]

	weatherWorker *WeatherWorker
	adviseWorker  *AdviseWorker
	workers       int

	g errgroup.Group
}

// New constructs a stopped pipeline. Call Start to launch the workers.
func New(cfg Config) (*Pipeline, error) {
	prompts, err := NewPromptBuilder()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		trips:      queue.New[domain.Trip](tripQueueName),
		advises:    queue.New[domain.AdviseRecord](adviseQueueName),
		tripDead:   queue.NewDeadLetterSink[domain.Trip](tripQueueName),
		adviseDead: queue.NewDeadLetterSink[domain.AdviseRecord](adviseQueueName),
		workers:    max(cfg.WorkersPerQueue, 1),
	}
	p.Orchestrator = NewOrchestrator(p.trips, p.advises)
	p.weatherWorker = NewWeatherWorker(p.trips, p.tripDead,
		cfg.Forecast, cfg.Weather, cfg.Advises, p.Orchestrator, cfg.ProviderTimeout)
	p.adviseWorker = NewAdviseWorker(p.advises, p.adviseDead,
		cfg.Chat, cfg.Trips, cfg.Weather, cfg.Advises, prompts, cfg.ProviderTimeout)
	return p, nil
}

// Start launches the worker goroutines. They run independently of the
// request-handling goroutines that produce work, and exit when their queue
// is closed and drained.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.g.Go(func() error {
			p.weatherWorker.Run(ctx)
			return nil
		})
		p.g.Go(func() error {
			p.adviseWorker.Run(ctx)
			return nil
		})
	}
}

// Shutdown drains the pipeline: enqueue is disabled, the backlog is worked
// off in causal order (trips first, since they produce advise work), and
// the worker goroutines are joined. Returns ctx.Err() if the deadline
// expires first; in that case workers still exit once their in-flight
// provider calls hit their own timeouts.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.trips.Close()
		p.trips.Join()
		p.advises.Close()
		p.advises.Join()
		_ = p.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueStatus is a point-in-time snapshot of one queue.
type QueueStatus struct {
	Name     string
	Depth    int
	InFlight int
}

// Status is the operator-facing snapshot served by the pipeline status
// endpoint: queue depths plus the full dead-letter logs.
type Status struct {
	Queues            []QueueStatus
	TripDeadLetters   []queue.Entry[domain.Trip]
	AdviseDeadLetters []queue.Entry[domain.AdviseRecord]
}

// Status returns a consistent-enough snapshot for inspection. Values are
// read per queue without a global lock; the pipeline keeps moving while the
// snapshot is taken.
func (p *Pipeline) Status() Status {
	return Status{
		Queues: []QueueStatus{
			{Name: p.trips.Name(), Depth: p.trips.Len(), InFlight: p.trips.InFlight()},
			{Name: p.advises.Name(), Depth: p.advises.Len(), InFlight: p.advises.InFlight()},
		},
		TripDeadLetters:   p.tripDead.Entries(),
		AdviseDeadLetters: p.adviseDead.Entries(),
	}
}
