package audit

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers record-of-custody facts: who registered,
	// deployed or returned a piece of equipment, and every accepted status change.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected mutations and token revocations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by registry services for every ledger mutation attempt.
// It stays transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	// Registry is the ledger schema name ("equipment", "deployment", "return").
	Registry string
	RecordID uint64
	// Actor is the identity that attempted the action.
	Actor string
	// Owner is the record's owner at the time of the event. Differs from
	// Actor only on rejected status updates.
	Owner          string
	Action         string
	Status         string
	PreviousStatus string
	Reason         string
	RequestID      string
}

// AuditEvent names an action recorded in the trail.
type AuditEvent string

const (
	EventRecordCreated        AuditEvent = "record_created"
	EventStatusUpdated        AuditEvent = "status_updated"
	EventStatusUpdateRejected AuditEvent = "status_update_rejected"
	EventRecordRead           AuditEvent = "record_read"
	EventTokenIssued          AuditEvent = "token_issued"
	EventTokenRevoked         AuditEvent = "token_revoked"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRecordCreated: CategoryCompliance,
	EventStatusUpdated: CategoryCompliance,

	EventStatusUpdateRejected: CategorySecurity,
	EventTokenRevoked:         CategorySecurity,

	EventRecordRead:  CategoryOperations,
	EventTokenIssued: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// AggregateKey groups events of one record, e.g. "equipment/12".
func (e Event) AggregateKey() string {
	if e.Registry == "" {
		return "audit"
	}
	return e.Registry + "/" + strconv.FormatUint(e.RecordID, 10)
}
