// Package kafka provides the event producer and consumer for PrivLens:
// privacy alerts flow out to the notification pipeline, document-change
// events flow between the registry and the cache-staleness consumer.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/privlens/privlens/pkg/errors"
)

// Topic constants.
const (
	TopicPrivacyAlert     = "alert.privacy"
	TopicDocumentChanged  = "site.document_changed"
)

// Event types carried in envelopes.
const (
	EventAlertRaised     = "alert.raised"
	EventDocumentChanged = "site.document.changed"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope wraps payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}
