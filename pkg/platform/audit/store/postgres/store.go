package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "reliefledger/pkg/platform/audit"
)

// Store appends audit events to the ledger_audit_events table. It is
// append-only: events are never updated or deleted.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store. Call EnsureSchema once at startup.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ledger_audit_events (
		id              UUID PRIMARY KEY,
		category        TEXT NOT NULL,
		occurred_at     TIMESTAMPTZ NOT NULL,
		registry        TEXT NOT NULL,
		record_id       BIGINT NOT NULL,
		actor           TEXT NOT NULL,
		owner           TEXT NOT NULL DEFAULT '',
		action          TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT '',
		previous_status TEXT NOT NULL DEFAULT '',
		reason          TEXT NOT NULL DEFAULT '',
		request_id      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_audit_events_record
		ON ledger_audit_events (registry, record_id, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_audit_events_actor
		ON ledger_audit_events (actor)`,
}

// EnsureSchema creates the audit table and indexes if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
	}
	return nil
}

// Append inserts one event. Re-delivery of the same event ID is ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	query := `
		INSERT INTO ledger_audit_events (
			id, category, occurred_at, registry, record_id, actor, owner,
			action, status, previous_status, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Timestamp,
		event.Registry,
		int64(event.RecordID),
		event.Actor,
		event.Owner,
		event.Action,
		event.Status,
		event.PreviousStatus,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `id, category, occurred_at, registry, record_id, actor, owner,
	action, status, previous_status, reason, request_id`

// ListByRecord returns the trail of one record, oldest first.
func (s *Store) ListByRecord(ctx context.Context, registry string, recordID uint64) ([]audit.Event, error) {
	query := `SELECT ` + selectColumns + `
		FROM ledger_audit_events
		WHERE registry = $1 AND record_id = $2
		ORDER BY occurred_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, registry, int64(recordID))
	if err != nil {
		return nil, fmt.Errorf("query audit events by record: %w", err)
	}
	return scanEvents(rows)
}

// ListByActors returns every event attempted by any of actors, oldest first.
func (s *Store) ListByActors(ctx context.Context, actors []string) ([]audit.Event, error) {
	if len(actors) == 0 {
		return nil, nil
	}
	query := `SELECT ` + selectColumns + `
		FROM ledger_audit_events
		WHERE actor = ANY($1)
		ORDER BY occurred_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(actors))
	if err != nil {
		return nil, fmt.Errorf("query audit events by actors: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	defer func() { _ = rows.Close() }()
	var events []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			category string
			recordID int64
		)
		if err := rows.Scan(
			&e.ID, &category, &e.Timestamp, &e.Registry, &recordID, &e.Actor, &e.Owner,
			&e.Action, &e.Status, &e.PreviousStatus, &e.Reason, &e.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.RecordID = uint64(recordID)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
