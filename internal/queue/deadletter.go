package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/trip-planner/internal/metrics"
)

// Entry is one dead-lettered item: a snapshot of the item at failure time
// paired with a human-readable reason.
type Entry[T any] struct {
	Item   T
	Reason string
	At     time.Time
}

// DeadLetterSink is an append-only log of items that failed unrecoverably
// during processing. It is inspected by operators and tests; nothing in the
// pipeline replays it automatically.
type DeadLetterSink[T any] struct {
	mu      sync.Mutex
	name    string
	entries []Entry[T]
	logger  *slog.Logger
}

// NewDeadLetterSink constructs an empty sink. The name labels metrics and
// log lines and conventionally matches the queue the items came from.
func NewDeadLetterSink[T any](name string) *DeadLetterSink[T] {
	return &DeadLetterSink[T]{
		name:   name,
		logger: slog.Default(),
	}
}

// Record appends (item, reason) with the current timestamp.
func (s *DeadLetterSink[T]) Record(item T, reason string) {
	s.mu.Lock()
	s.entries = append(s.entries, Entry[T]{Item: item, Reason: reason, At: time.Now()})
	n := len(s.entries)
	s.mu.Unlock()

	metrics.DeadLetters.WithLabelValues(s.name).Inc()
	s.logger.Warn("item dead-lettered",
		"queue", s.name,
		"reason", reason,
		"total", n,
	)
}

// Entries returns a snapshot copy of the log in append order.
func (s *DeadLetterSink[T]) Entries() []Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry[T], len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of recorded entries.
func (s *DeadLetterSink[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
