package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "keygate"

// Topics builds keygate MQTT topics under a configurable prefix.
//
//	topics := mqtt.NewTopics("keygate")
//	topics.Event("credential.secret_issued")
//	// Returns: "keygate/events/credential.secret_issued"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Trailing slashes are trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic built by t.
func (t Topics) Prefix() string {
	return t.prefix
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: keygate/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}

// Event returns the topic for one security event type.
//
// Example: keygate/events/authorization.denied
func (t Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/events/%s", t.prefix, eventType)
}

// AllEvents returns a wildcard matching every security event.
//
// Example: keygate/events/#
func (t Topics) AllEvents() string {
	return fmt.Sprintf("%s/events/#", t.prefix)
}
