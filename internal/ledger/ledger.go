// Package ledger implements the owner-gated record store shared by every
// registry. A Ledger assigns sequential identifiers, keeps records keyed by
// identifier, and lets only the creating actor change a record's status.
//
// Invariants:
//   - Identifiers returned by Create are 1, 2, 3, ... with no reuse or gaps
//   - Owner is captured once at creation and never changes
//   - Status changes only through SetStatus, and only when actor == owner
//   - Records are never removed
//
// Status is an open string. The ledger does not validate values or enforce a
// transition table; the last accepted write wins.
package ledger

import (
	"sync"
)

// ID identifies a record within one ledger.
type ID uint64

// Actor is the identity performing an operation (the transaction sender).
type Actor string

// Status is the mutable lifecycle label of a record.
type Status string

// Schema names a registry and its creation defaults.
type Schema struct {
	// Name is the registry name used in logs, metrics and audit events.
	Name string
	// OwnerField is how the registry refers to the owning actor
	// ("owner", "deployer", "returner").
	OwnerField string
	// DefaultStatus is assigned to every new record.
	DefaultStatus Status
}

// Record is one stored entity. Payload holds the schema-specific fields.
type Record[T any] struct {
	ID      ID
	Owner   Actor
	Status  Status
	Payload T
}

// Ledger stores records of a single schema. Each method is atomic with respect
// to the others; concurrent callers are serialized by an internal lock.
type Ledger[T any] struct {
	mu      sync.RWMutex
	schema  Schema
	records map[ID]Record[T]
	lastID  ID
}

// New returns an empty ledger for schema. The counter starts at 0.
func New[T any](schema Schema) *Ledger[T] {
	return &Ledger[T]{
		schema:  schema,
		records: make(map[ID]Record[T]),
	}
}

// Schema returns the ledger's schema.
func (l *Ledger[T]) Schema() Schema {
	return l.schema
}

// Create stores a new record owned by actor and returns its identifier.
// It performs no precondition checks and cannot fail.
func (l *Ledger[T]) Create(actor Actor, payload T) ID {
	l.mu.Lock()
	defer l.mu.Unlock()

	newID := l.lastID + 1
	l.records[newID] = Record[T]{
		ID:      newID,
		Owner:   actor,
		Status:  l.schema.DefaultStatus,
		Payload: payload,
	}
	l.lastID = newID
	return newID
}

// Get returns a copy of the record stored under id. Reads are not
// authorization-gated.
func (l *Ledger[T]) Get(id ID) (Record[T], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[id]
	return rec, ok
}

// SetStatus overwrites the status of record id when actor is its owner.
// On failure the record is left untouched and a *Error is returned with
// CodeNotFound or CodeUnauthorized.
func (l *Ledger[T]) SetStatus(actor Actor, id ID, status Status) error {
	_, err := l.SwapStatus(actor, id, status)
	return err
}

// SwapStatus is SetStatus that also returns the status it replaced. The
// previous status is read under the same lock as the write.
func (l *Ledger[T]) SwapStatus(actor Actor, id ID, status Status) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok {
		return "", &Error{Code: CodeNotFound, ID: id, Actor: actor}
	}
	if rec.Owner != actor {
		return "", &Error{Code: CodeUnauthorized, ID: id, Actor: actor}
	}
	previous := rec.Status
	rec.Status = status
	l.records[id] = rec
	return previous, nil
}

// LastID returns the most recently assigned identifier, or 0 for an empty ledger.
func (l *Ledger[T]) LastID() ID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastID
}

// Len returns the number of stored records.
func (l *Ledger[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
