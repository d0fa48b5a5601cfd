package auth

import (
	"context"
	"time"

	"github.com/nerrad567/keygate/internal/events"
)

// EventPublisher receives security events. Satisfied by *events.Bus.
type EventPublisher interface {
	Publish(e events.Event)
}

// MetricsRecorder receives decision and issuance metrics.
// Satisfied by *influxdb.Client.
type MetricsRecorder interface {
	WriteAuthDecision(roleID string, required []string, allowed bool, at time.Time)
	WriteCredentialIssued(kind string, at time.Time)
}

// Issuance kinds reported to MetricsRecorder.
const (
	IssuedKeyToken = "key_token"
	IssuedSecret   = "secret"
)

// Option configures the optional collaborators of a service.
type Option func(*hooks)

// WithEvents publishes security events to p.
func WithEvents(p EventPublisher) Option {
	return func(h *hooks) {
		if p != nil {
			h.events = p
		}
	}
}

// WithMetrics records decisions and issuances to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(h *hooks) {
		if m != nil {
			h.metrics = m
		}
	}
}

// withClock overrides the time source.
func withClock(now func() time.Time) Option {
	return func(h *hooks) { h.now = now }
}

type hooks struct {
	events  EventPublisher
	metrics MetricsRecorder
	now     func() time.Time
}

func newHooks(opts []Option) hooks {
	h := hooks{
		events:  nopPublisher{},
		metrics: nopMetrics{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// publish stamps the acting user from ctx unless the event already has one.
func (h hooks) publish(ctx context.Context, e events.Event) {
	if e.UserID == "" {
		e.UserID = actorID(ctx)
	}
	h.events.Publish(e)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

type nopMetrics struct{}

func (nopMetrics) WriteAuthDecision(string, []string, bool, time.Time) {}
func (nopMetrics) WriteCredentialIssued(string, time.Time)             {}
