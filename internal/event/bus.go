// Package event carries run lifecycle notifications between components.
package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Type identifies a category of event.
type Type string

// Known event types.
const (
	RunCompleted  Type = "run.completed"
	RunFailed     Type = "run.failed"
	SampleAdded   Type = "sample.added"
	SampleRemoved Type = "sample.removed"
)

// Event describes a change to a watched run directory or the outcome of
// one aggregation. Sample events set Sample; run events set RunID and the
// counts, or Err for a failed run.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Root      string    `json:"root"`
	RunID     string    `json:"run_id,omitempty"`
	Sample    string    `json:"sample,omitempty"`
	Total     int       `json:"total,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Excluded  int       `json:"excluded,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// LogAttrs returns the populated fields as slog key/value pairs.
func (e Event) LogAttrs() []any {
	attrs := []any{"event", string(e.Type), "root", e.Root}
	switch e.Type {
	case SampleAdded, SampleRemoved:
		attrs = append(attrs, "sample", e.Sample)
	case RunCompleted:
		attrs = append(attrs, "run_id", e.RunID, "total", e.Total,
			"processed", e.Processed, "excluded", e.Excluded)
	case RunFailed:
		attrs = append(attrs, "error", e.Err)
	}
	return attrs
}

// Handler processes an event.
type Handler func(Event)

// Bus fans events out to subscribers from a single dispatch goroutine.
// Publish never blocks: events beyond the queue capacity are dropped and
// counted.
type Bus struct {
	queue   chan Event
	logger  *slog.Logger
	dropped atomic.Uint64

	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus creates a bus queueing up to capacity events. A capacity of
// zero or less uses 64.
func NewBus(logger *slog.Logger, capacity int) *Bus {
	if capacity <= 0 {
		capacity = 64
	}
	return &Bus{
		queue:    make(chan Event, capacity),
		logger:   logger.With("component", "event"),
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers h for every listed type.
func (b *Bus) Subscribe(h Handler, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], h)
	}
}

// Publish queues e, stamping it with the current time if unset.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case b.queue <- e:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event queue full, dropping event", "type", string(e.Type), "root", e.Root)
	}
}

// Dropped reports how many events Publish discarded.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Run delivers queued events until ctx is done, then delivers whatever
// is still queued and returns.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case e := <-b.queue:
			b.deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-b.queue:
					b.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.call(h, e)
	}
}

// call isolates a panicking handler from the rest.
func (b *Bus) call(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "type", string(e.Type), "panic", r)
		}
	}()
	h(e)
}
