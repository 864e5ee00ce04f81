package pipeline

import (
	"log/slog"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/queue"
)

// Orchestrator is the glue between entity creation and the worker queues.
// It has no loop of its own: the creation paths call it explicitly, exactly
// once per entity: TripService.Create fires TripCreated, and the weather
// worker fires AdviseCreated for each record it seeds. Nothing fires on
// update, which is what keeps the workers' own state-transition writes from
// causing re-enqueue storms.
type Orchestrator struct {
	trips   *queue.TaskQueue[domain.Trip]
	advises *queue.TaskQueue[domain.AdviseRecord]
	logger  *slog.Logger
}

// NewOrchestrator wires the orchestrator to the two worker queues.
func NewOrchestrator(trips *queue.TaskQueue[domain.Trip], advises *queue.TaskQueue[domain.AdviseRecord]) *Orchestrator {
	return &Orchestrator{
		trips:   trips,
		advises: advises,
		logger:  slog.Default(),
	}
}

// TripCreated hands a freshly created trip to the weather worker.
// Enqueue is fire-and-forget; the caller never blocks on the consumer.
// During shutdown the queue is closed and the event is dropped; the trip
// stays persisted without weather data, same as any dead-lettered trip.
func (o *Orchestrator) TripCreated(trip domain.Trip) {
	if err := o.trips.Enqueue(trip); err != nil {
		o.logger.Warn("dropping trip event, queue closed", "trip_id", trip.ID)
		return
	}
	o.logger.Info("trip enqueued for weather fetch", "trip_id", trip.ID)
}

// AdviseCreated hands a freshly created advice record to the advise worker.
// Only Pending records are enqueued; records created in any other state are
// not pipeline work.
func (o *Orchestrator) AdviseCreated(rec domain.AdviseRecord) {
	if rec.State != domain.StatePending {
		return
	}
	if err := o.advises.Enqueue(rec); err != nil {
		o.logger.Warn("dropping advise event, queue closed", "advise_id", rec.ID, "trip_id", rec.TripID)
		return
	}
	o.logger.Info("advice record enqueued", "advise_id", rec.ID, "trip_id", rec.TripID)
}
