package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeKeyTokenIssued      = "credential.key_token_issued"
	TypeSecretIssued        = "credential.secret_issued"
	TypeAuthorizationDenied = "authorization.denied"
	TypeUserCreated         = "user.created"
	TypeUserDeleted         = "user.deleted"
	TypeRoleCreated         = "role.created"
	TypeRoleUpdated         = "role.updated"
	TypeRoleDeleted         = "role.deleted"
	TypePermissionCreated   = "permission.created"
	TypeCatalogChanged      = "catalog.changed"
)

// Sources.
const (
	SourceAPI    = "api"
	SourceSystem = "system"
)

// Event is one security-relevant occurrence.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"` // acting user
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New returns an API-sourced event stamped with a fresh ID and the current time.
func New(eventType, entityType, entityID string) Event {
	return Event{
		ID:         "evt-" + uuid.NewString()[:8],
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Source:     SourceAPI,
		OccurredAt: time.Now().UTC(),
	}
}

// By sets the acting user.
func (e Event) By(userID string) Event {
	e.UserID = userID
	return e
}

// With adds a detail field.
func (e Event) With(key string, value any) Event {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}
