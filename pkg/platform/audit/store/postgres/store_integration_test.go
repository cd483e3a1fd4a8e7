//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/audit/store/postgres"
	"reliefledger/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "ledger_audit_events"))
}

func event(registry string, recordID uint64, actor string, action audit.AuditEvent, at time.Time) audit.Event {
	return audit.Event{
		ID:        uuid.New(),
		Timestamp: at,
		Registry:  registry,
		RecordID:  recordID,
		Actor:     actor,
		Owner:     "ST1",
		Action:    string(action),
		Status:    "available",
	}
}

func (s *PostgresAuditSuite) TestAppendAndListByRecord() {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, event("equipment", 1, "ST1", audit.EventRecordCreated, base)))
	s.Require().NoError(s.store.Append(ctx, event("equipment", 1, "ST2", audit.EventStatusUpdateRejected, base.Add(time.Minute))))
	s.Require().NoError(s.store.Append(ctx, event("deployment", 1, "ST1", audit.EventRecordCreated, base)))

	events, err := s.store.ListByRecord(ctx, "equipment", 1)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventRecordCreated), events[0].Action)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal(audit.CategorySecurity, events[1].Category)
	s.Equal("ST2", events[1].Actor)
	s.True(events[0].Timestamp.Equal(base))
}

func (s *PostgresAuditSuite) TestAppendIsIdempotentOnID() {
	ctx := context.Background()
	e := event("return", 4, "ST1", audit.EventRecordCreated, time.Now().UTC())

	s.Require().NoError(s.store.Append(ctx, e))
	s.Require().NoError(s.store.Append(ctx, e))

	events, err := s.store.ListByRecord(ctx, "return", 4)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *PostgresAuditSuite) TestListByActors() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Require().NoError(s.store.Append(ctx, event("equipment", 1, "ST1", audit.EventRecordCreated, now)))
	s.Require().NoError(s.store.Append(ctx, event("equipment", 2, "ST2", audit.EventRecordCreated, now)))
	s.Require().NoError(s.store.Append(ctx, event("equipment", 3, "ST3", audit.EventRecordCreated, now)))

	events, err := s.store.ListByActors(ctx, []string{"ST1", "ST3"})
	s.Require().NoError(err)
	s.Len(events, 2)

	none, err := s.store.ListByActors(ctx, nil)
	s.Require().NoError(err)
	s.Empty(none)
}
