// Package guard wraps audit sinks with a circuit breaker and sampling so a
// slow or failing sink does not stall ledger requests.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/circuit"
	"reliefledger/pkg/platform/sentinel"
)

// ErrSinkUnavailable is returned while the sink's circuit is open. It wraps
// sentinel.ErrUnavailable.
var ErrSinkUnavailable = fmt.Errorf("audit sink: %w", sentinel.ErrUnavailable)

// BreakerStore stops calling its sink after repeated failures and tries it
// again after the breaker cooldown.
type BreakerStore struct {
	store   audit.Store
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

func NewBreakerStore(store audit.Store, breaker *circuit.Breaker, logger *slog.Logger, metrics *Metrics) *BreakerStore {
	return &BreakerStore{
		store:   store,
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *BreakerStore) Append(ctx context.Context, event audit.Event) error {
	sink := s.breaker.Name()
	if !s.breaker.Allow() {
		s.metrics.incBreakerDropped(sink)
		return ErrSinkUnavailable
	}

	if err := s.store.Append(ctx, event); err != nil {
		s.metrics.incAppendFailures(sink)
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.metrics.setBreakerOpen(sink, true)
			s.logger.WarnContext(ctx, "audit sink circuit opened",
				"sink", sink,
				"error", err,
			)
		}
		return err
	}

	s.metrics.incAppended(sink)
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.setBreakerOpen(sink, false)
		s.logger.InfoContext(ctx, "audit sink circuit closed", "sink", sink)
	}
	return nil
}
