// Package queue implements the in-process task queues the background
// pipeline runs on: a typed, unbounded, FIFO, blocking multi-producer /
// multi-consumer queue with explicit acknowledgment, and an append-only
// dead-letter sink for items whose processing failed unrecoverably.
//
// Queues are constructed explicitly and injected into their producers and
// consumers; there are no package-level queue singletons. State lives purely
// in process memory and is lost on restart; backing the same contract with
// a durable table is a known follow-up, not something this package does.
package queue

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/trip-planner/internal/metrics"
)

// ErrClosed is returned by Enqueue once the queue has entered drain mode.
var ErrClosed = errors.New("queue closed")

// TaskQueue is an unbounded FIFO queue. Enqueue never blocks beyond memory
// pressure; Dequeue blocks the calling worker until an item is available.
// Every dequeued item must be acknowledged with Ack exactly once; the ack
// exists for drain/shutdown accounting, not for redelivery. The queue never
// retries: a worker that fails while processing an item forwards it to a
// dead-letter sink itself before acking.
type TaskQueue[T any] struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	idle     *sync.Cond
	items    []T
	inflight int
	closed   bool
	name     string
	depth    prometheus.Gauge
}

// New constructs an empty queue. The name labels the queue's metrics and
// log lines.
func New[T any](name string) *TaskQueue[T] {
	q := &TaskQueue[T]{
		name:  name,
		depth: metrics.QueueDepth.WithLabelValues(name),
	}
	q.nonEmpty = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue's label.
func (q *TaskQueue[T]) Name() string { return q.name }

// Enqueue appends an item in FIFO position and returns immediately.
// Returns ErrClosed once Close has been called.
func (q *TaskQueue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.depth.Set(float64(len(q.items)))
	q.nonEmpty.Signal()
	return nil
}

// Dequeue blocks until an item is available, returning items in strict FIFO
// order across all producers. The returned item counts as in-flight until
// Ack is called. After Close, remaining items are still handed out; once the
// queue is both closed and empty, Dequeue returns ok=false and workers
// should exit.
func (q *TaskQueue[T]) Dequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}
	if len(q.items) == 0 {
		return item, false
	}

	item = q.items[0]
	q.items = q.items[1:]
	q.inflight++
	q.depth.Set(float64(len(q.items)))
	return item, true
}

// Ack marks one previously dequeued item as fully handled, successfully or
// not. Workers call it unconditionally after success-or-dead-letter so no
// item is ever left stuck in the in-flight count.
func (q *TaskQueue[T]) Ack() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inflight > 0 {
		q.inflight--
	}
	if len(q.items) == 0 && q.inflight == 0 {
		q.idle.Broadcast()
	}
}

// Close puts the queue into drain mode: further Enqueue calls fail with
// ErrClosed, blocked Dequeue calls return once the backlog is handed out,
// and workers exit when they see ok=false. Safe to call more than once.
func (q *TaskQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.nonEmpty.Broadcast()
	if len(q.items) == 0 && q.inflight == 0 {
		q.idle.Broadcast()
	}
}

// Join blocks until the queue is empty and every dequeued item has been
// acked. Call after Close to wait for a full drain.
func (q *TaskQueue[T]) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) > 0 || q.inflight > 0 {
		q.idle.Wait()
	}
}

// Len returns the number of items currently waiting.
func (q *TaskQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// InFlight returns the number of dequeued-but-unacked items.
func (q *TaskQueue[T]) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}
