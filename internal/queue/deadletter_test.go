package queue_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/queue"
)

func TestDeadLetterSink_RecordAndEntries(t *testing.T) {
	sink := queue.NewDeadLetterSink[string]("dlq_test")

	sink.Record("first", "fetch failed")
	sink.Record("second", "bad code")

	entries := sink.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "first", entries[0].Item)
	assert.Equal(t, "fetch failed", entries[0].Reason)
	assert.False(t, entries[0].At.IsZero())

	assert.Equal(t, "second", entries[1].Item)
	assert.Equal(t, "bad code", entries[1].Reason)

	assert.Equal(t, 2, sink.Len())
}

func TestDeadLetterSink_EntriesIsASnapshot(t *testing.T) {
	sink := queue.NewDeadLetterSink[int]("snapshot_test")
	sink.Record(1, "boom")

	snapshot := sink.Entries()
	sink.Record(2, "boom again")

	// The earlier snapshot must not grow.
	assert.Len(t, snapshot, 1)
	assert.Len(t, sink.Entries(), 2)
}

func TestDeadLetterSink_ConcurrentRecords(t *testing.T) {
	sink := queue.NewDeadLetterSink[int]("concurrent_test")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink.Record(i, "concurrent failure")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, sink.Len())
}
