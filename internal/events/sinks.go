package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/keygate/internal/audit"
)

// AuditSink writes events to the audit trail.
type AuditSink struct {
	repo audit.Repository
}

// NewAuditSink creates a sink backed by repo.
func NewAuditSink(repo audit.Repository) *AuditSink {
	return &AuditSink{repo: repo}
}

// Name implements Sink.
func (s *AuditSink) Name() string { return "audit" }

// Deliver implements Sink.
func (s *AuditSink) Deliver(ctx context.Context, e Event) error {
	entry := &audit.Entry{
		Action:     e.Type,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Source:     e.Source,
		Details:    e.Details,
		CreatedAt:  e.OccurredAt,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("writing audit entry for %s: %w", e.Type, err)
	}
	return nil
}

// EventPublisher publishes a payload under an event type.
// Satisfied by *mqtt.Client.
type EventPublisher interface {
	PublishEvent(eventType string, payload []byte) error
}

// MQTTSink publishes events as JSON to the broker.
type MQTTSink struct {
	pub EventPublisher
}

// NewMQTTSink creates a sink that publishes through pub.
func NewMQTTSink(pub EventPublisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Deliver implements Sink.
func (s *MQTTSink) Deliver(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	return s.pub.PublishEvent(e.Type, payload)
}
