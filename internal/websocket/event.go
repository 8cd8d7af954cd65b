package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeTriggered    EventType = "triggered"
	EventTypeAcknowledged EventType = "acknowledged"
	EventTypeCompleted    EventType = "completed"
	EventTypeLoaded       EventType = "loaded"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeAlert       EntityType = "alert"
	EntityTypeSnapshot    EntityType = "arrears_snapshot"
	EntityTypeKPI         EntityType = "kpi"
	EntityTypeIngestBatch EntityType = "ingest_batch"
)

// Topics clients can subscribe to. Alert events go to TopicAlerts, the
// pipeline lifecycle events to TopicSnapshots.
const (
	TopicAlerts    = "alerts"
	TopicSnapshots = "snapshots"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "alert.triggered"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "alert"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AlertTriggered creates an alert.triggered event
func AlertTriggered(payload interface{}) Event {
	return NewEvent(EventTypeTriggered, EntityTypeAlert, payload)
}

// AlertAcknowledged creates an alert.acknowledged event
func AlertAcknowledged(payload interface{}) Event {
	return NewEvent(EventTypeAcknowledged, EntityTypeAlert, payload)
}

// SnapshotCompleted creates an arrears_snapshot.completed event
func SnapshotCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeSnapshot, payload)
}

// IngestBatchLoaded creates an ingest_batch.loaded event
func IngestBatchLoaded(payload interface{}) Event {
	return NewEvent(EventTypeLoaded, EntityTypeIngestBatch, payload)
}
