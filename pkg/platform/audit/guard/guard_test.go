package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/audit/store/memory"
	"reliefledger/pkg/platform/circuit"
	"reliefledger/pkg/platform/sentinel"
)

type flakyStore struct {
	err   error
	calls int
}

func (s *flakyStore) Append(context.Context, audit.Event) error {
	s.calls++
	return s.err
}

func event(action audit.AuditEvent) audit.Event {
	return audit.Event{Registry: "equipment", RecordID: 1, Actor: "ST1", Action: string(action)}
}

func TestBreakerStore_OpensAndRecovers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sink := &flakyStore{err: errors.New("broker unreachable")}
	m := NewMetricsWithRegisterer(prometheus.NewRegistry())
	b := circuit.New("kafka",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	store := NewBreakerStore(sink, b, slog.New(slog.NewTextHandler(io.Discard, nil)), m)

	require.Error(t, store.Append(ctx, event(audit.EventRecordCreated)))
	require.Error(t, store.Append(ctx, event(audit.EventRecordCreated)))
	assert.True(t, b.IsOpen())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerOpenGauge.WithLabelValues("kafka")))

	err := store.Append(ctx, event(audit.EventRecordCreated))
	assert.ErrorIs(t, err, ErrSinkUnavailable)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 2, sink.calls, "open circuit must not call the sink")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerDropped.WithLabelValues("kafka")))

	now = now.Add(time.Minute)
	sink.err = nil
	require.NoError(t, store.Append(ctx, event(audit.EventRecordCreated)))
	assert.False(t, b.IsOpen())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerOpenGauge.WithLabelValues("kafka")))
}

func TestSampler_NeverDropsComplianceOrSecurity(t *testing.T) {
	s := NewSampler(0)

	assert.True(t, s.Keep(event(audit.EventRecordCreated)))
	assert.True(t, s.Keep(event(audit.EventStatusUpdateRejected)))
	assert.False(t, s.Keep(event(audit.EventRecordRead)))
}

func TestSampler_PerActionRate(t *testing.T) {
	s := NewSampler(0)
	s.SetRate(string(audit.EventRecordRead), 1)
	assert.True(t, s.Keep(event(audit.EventRecordRead)))

	s.SetRate(string(audit.EventRecordRead), 0.5)
	s.rand = func() float64 { return 0.49 }
	assert.True(t, s.Keep(event(audit.EventRecordRead)))
	s.rand = func() float64 { return 0.5 }
	assert.False(t, s.Keep(event(audit.EventRecordRead)))
}

func TestSampler_ClampsRates(t *testing.T) {
	assert.Equal(t, 1.0, NewSampler(7).rateFor("x"))
	assert.Equal(t, 0.0, NewSampler(-1).rateFor("x"))
}

func TestSampledStore(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewInMemoryStore()
	m := NewMetricsWithRegisterer(prometheus.NewRegistry())
	store := NewSampledStore("postgres", inner, NewSampler(0), m)

	require.NoError(t, store.Append(ctx, event(audit.EventRecordRead)))
	require.NoError(t, store.Append(ctx, event(audit.EventStatusUpdated)))

	events, _ := inner.ListAll(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventStatusUpdated), events[0].Action)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sampled.WithLabelValues("postgres")))
}
