package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultBufferSize is the publish buffer used when none is configured.
	DefaultBufferSize = 256

	// deliveryTimeout bounds a single sink delivery.
	deliveryTimeout = 5 * time.Second
)

// Sink receives every event published on a Bus.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Logger is the logging surface the bus needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
	Queued    int    `json:"queued"`
	Sinks     int    `json:"sinks"`
}

// Bus fans events out to sinks asynchronously.
type Bus struct {
	ch     chan Event
	logger Logger

	sinksMu sync.RWMutex
	sinks   []Sink

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewBus creates a bus with the given buffer size.
func NewBus(bufferSize int, logger Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		ch:     make(chan Event, bufferSize),
		logger: logger,
	}
}

// AddSink registers a sink. Sinks added while Run is active receive
// subsequent events.
func (b *Bus) AddSink(s Sink) {
	b.sinksMu.Lock()
	b.sinks = append(b.sinks, s)
	b.sinksMu.Unlock()
}

// Publish enqueues e without blocking. A full buffer drops the event.
func (b *Bus) Publish(e Event) {
	select {
	case b.ch <- e:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		if b.logger != nil {
			b.logger.Warn("event bus full, dropping event",
				"type", e.Type,
				"entity_type", e.EntityType,
				"entity_id", e.EntityID,
			)
		}
	}
}

// Run delivers events until ctx is cancelled, then drains the buffer.
// It always returns nil so it can run inside an errgroup without
// cancelling its siblings.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case e := <-b.ch:
			b.deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-b.ch:
					b.deliver(e)
				default:
					return nil
				}
			}
		}
	}
}

// deliver hands e to every sink. Delivery uses its own context so events
// drained during shutdown still reach storage.
func (b *Bus) deliver(e Event) {
	b.sinksMu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.sinksMu.RUnlock()

	for _, s := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := s.Deliver(ctx, e)
		cancel()
		if err != nil {
			b.failed.Add(1)
			if b.logger != nil {
				b.logger.Error("event delivery failed",
					"sink", s.Name(),
					"type", e.Type,
					"error", err,
				)
			}
			continue
		}
		b.delivered.Add(1)
	}
}

// Stats returns the current counters.
func (b *Bus) Stats() Stats {
	b.sinksMu.RLock()
	sinks := len(b.sinks)
	b.sinksMu.RUnlock()

	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Failed:    b.failed.Load(),
		Queued:    len(b.ch),
		Sinks:     sinks,
	}
}
