package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventTypeClipCreated is emitted exactly once per newly created canonical
// content row.
const EventTypeClipCreated = "clip.created"

// ClipEvent is the outbound notification consumed by the enrichment
// pipeline. The payload is self-contained so a dead-lettered event can be
// replayed without a store lookup.
type ClipEvent struct {
	EventType string    `json:"event_type"`
	EventID   uuid.UUID `json:"event_id"`
	ContentID uuid.UUID `json:"content_id"`
	SourceURL string    `json:"source_url"`
	TenantID  string    `json:"tenant_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewClipCreatedEvent builds a clip.created event for a fresh content row.
func NewClipCreatedEvent(contentID uuid.UUID, sourceURL, tenantID string) ClipEvent {
	return ClipEvent{
		EventType: EventTypeClipCreated,
		EventID:   uuid.New(),
		ContentID: contentID,
		SourceURL: sourceURL,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
	}
}

// Marshal renders the event as JSON for stream publication.
func (e ClipEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalClipEvent parses a stream payload back into an event.
func UnmarshalClipEvent(data []byte) (ClipEvent, error) {
	var e ClipEvent
	err := json.Unmarshal(data, &e)
	return e, err
}

// DeadLetter wraps a clip event with failure metadata after delivery
// retries are exhausted. It retains the full payload for replay.
type DeadLetter struct {
	Event       ClipEvent `json:"event"`
	ErrorReason string    `json:"error_reason"`
	Attempts    int       `json:"attempts"`
	FailedAt    time.Time `json:"failed_at"`
}

// Marshal renders the dead letter as JSON for the DLQ stream.
func (d DeadLetter) Marshal() ([]byte, error) {
	return json.Marshal(d)
}
