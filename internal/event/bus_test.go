package event

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects delivered events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// runBus dispatches until the test ends and waits for Run to return.
func runBus(t *testing.T, bus *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	runBus(t, bus)

	rec := &recorder{}
	bus.Subscribe(rec.handle, RunCompleted)
	bus.Publish(Event{Type: RunCompleted, Root: "/runs/a", RunID: "r1", Total: 3})

	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "r1", rec.events[0].RunID)
	assert.Equal(t, 3, rec.events[0].Total)
	assert.False(t, rec.events[0].Timestamp.IsZero())
}

func TestSubscribeMultipleTypes(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	runBus(t, bus)

	rec := &recorder{}
	bus.Subscribe(rec.handle, SampleAdded, SampleRemoved)
	bus.Publish(Event{Type: SampleAdded, Sample: "s1"})
	bus.Publish(Event{Type: SampleRemoved, Sample: "s1"})
	bus.Publish(Event{Type: RunCompleted})

	assert.Eventually(t, func() bool { return rec.len() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, rec.len())
}

func TestQueueFullDropsAndCounts(t *testing.T) {
	bus := NewBus(testLogger(), 2)
	rec := &recorder{}
	bus.Subscribe(rec.handle, RunCompleted)

	for range 3 {
		bus.Publish(Event{Type: RunCompleted})
	}
	assert.Equal(t, uint64(1), bus.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Run(ctx)
	assert.Equal(t, 2, rec.len())
}

func TestRunDrainsAfterCancel(t *testing.T) {
	bus := NewBus(testLogger(), 8)
	rec := &recorder{}
	bus.Subscribe(rec.handle, SampleAdded)
	bus.Publish(Event{Type: SampleAdded, Sample: "a"})
	bus.Publish(Event{Type: SampleAdded, Sample: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Run(ctx)

	assert.Equal(t, 2, rec.len())
}

func TestHandlerPanicRecovery(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	runBus(t, bus)

	rec := &recorder{}
	bus.Subscribe(func(Event) { panic("boom") }, RunFailed)
	bus.Subscribe(rec.handle, RunFailed)
	bus.Publish(Event{Type: RunFailed, Err: "disk full"})

	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLogAttrs(t *testing.T) {
	tests := []struct {
		name string
		e    Event
		want []any
	}{
		{
			name: "sample",
			e:    Event{Type: SampleAdded, Root: "/r", Sample: "s1"},
			want: []any{"event", "sample.added", "root", "/r", "sample", "s1"},
		},
		{
			name: "completed",
			e:    Event{Type: RunCompleted, Root: "/r", RunID: "id", Total: 2, Processed: 1, Excluded: 1},
			want: []any{"event", "run.completed", "root", "/r", "run_id", "id", "total", 2, "processed", 1, "excluded", 1},
		},
		{
			name: "failed",
			e:    Event{Type: RunFailed, Root: "/r", Err: "boom"},
			want: []any{"event", "run.failed", "root", "/r", "error", "boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.LogAttrs())
		})
	}
}
