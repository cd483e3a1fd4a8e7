package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "reliefledger/pkg/platform/audit"
)

// Message is the JSON payload written to the topic.
type Message struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Timestamp      string `json:"timestamp"`
	Registry       string `json:"registry"`
	RecordID       uint64 `json:"record_id"`
	Actor          string `json:"actor"`
	Owner          string `json:"owner,omitempty"`
	Action         string `json:"action"`
	Status         string `json:"status,omitempty"`
	PreviousStatus string `json:"previous_status,omitempty"`
	Reason         string `json:"reason,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// NewMessage fills in the category from the action when the event has none.
func NewMessage(event audit.Event) Message {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	return Message{
		ID:             event.ID.String(),
		Category:       string(category),
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		Registry:       event.Registry,
		RecordID:       event.RecordID,
		Actor:          event.Actor,
		Owner:          event.Owner,
		Action:         event.Action,
		Status:         event.Status,
		PreviousStatus: event.PreviousStatus,
		Reason:         event.Reason,
		RequestID:      event.RequestID,
	}
}

// Decode parses a topic payload back into an event. The id, action and
// timestamp must be present and well formed.
func Decode(value []byte) (audit.Event, error) {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return audit.Event{}, fmt.Errorf("unmarshal audit message: %w", err)
	}
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return audit.Event{}, fmt.Errorf("audit message id: %w", err)
	}
	if msg.Action == "" {
		return audit.Event{}, fmt.Errorf("audit message %s has no action", id)
	}
	ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("audit message %s timestamp: %w", id, err)
	}
	category := audit.EventCategory(msg.Category)
	if category == "" {
		category = audit.AuditEvent(msg.Action).Category()
	}
	return audit.Event{
		ID:             id,
		Category:       category,
		Timestamp:      ts,
		Registry:       msg.Registry,
		RecordID:       msg.RecordID,
		Actor:          msg.Actor,
		Owner:          msg.Owner,
		Action:         msg.Action,
		Status:         msg.Status,
		PreviousStatus: msg.PreviousStatus,
		Reason:         msg.Reason,
		RequestID:      msg.RequestID,
	}, nil
}
