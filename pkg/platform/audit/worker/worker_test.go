package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/audit/store/memory"
)

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, audit.Event) error { return s.err }

func TestWorker_DrainsUntilInboxCloses(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{Registry: "equipment", RecordID: 1, Action: "record_created"}
	inbox <- audit.Event{Registry: "equipment", RecordID: 1, Action: "status_updated"}
	close(inbox)

	require.NoError(t, NewWorker(store, inbox).Run(context.Background()))

	events, err := store.ListByRecord(context.Background(), "equipment", 1)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWorker(memory.NewInMemoryStore(), make(chan audit.Event)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_FirstFailureStopsWithoutHandler(t *testing.T) {
	dbDown := errors.New("db down")
	inbox := make(chan audit.Event, 1)
	inbox <- audit.Event{Action: "record_created"}

	err := NewWorker(failingStore{dbDown}, inbox).Run(context.Background())
	assert.ErrorIs(t, err, dbDown)
}

func TestWorker_ErrorHandlerKeepsRunning(t *testing.T) {
	dbDown := errors.New("db down")
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{RecordID: 1}
	inbox <- audit.Event{RecordID: 2}
	close(inbox)

	var failed []uint64
	w := NewWorker(failingStore{dbDown}, inbox, WithErrorHandler(func(e audit.Event, err error) {
		assert.ErrorIs(t, err, dbDown)
		failed = append(failed, e.RecordID)
	}))

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []uint64{1, 2}, failed)
}
