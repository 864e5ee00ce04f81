// Package metrics registers the prometheus collectors for the background
// pipeline. Collectors are package-level and registered once via promauto;
// the queue and workers update them by label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripplanner"

var (
	// QueueDepth tracks the number of items waiting in each task queue.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of items currently waiting in the task queue",
	}, []string{"queue"})

	// ItemsProcessed counts dequeued items by outcome.
	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_processed_total",
		Help:      "Total items processed by the pipeline workers",
	}, []string{"queue", "result"})

	// DeadLetters counts items routed to a dead-letter sink.
	DeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dead_letters_total",
		Help:      "Total items recorded in a dead-letter sink",
	}, []string{"queue"})

	// ProviderDuration times external provider calls.
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of external provider calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)

// Outcome labels for ItemsProcessed.
const (
	ResultOK         = "ok"
	ResultDeadLetter = "dead_letter"
	ResultSkipped    = "skipped"
)
