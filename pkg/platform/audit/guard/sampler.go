package guard

import (
	"context"
	"math/rand/v2"
	"sync"

	audit "reliefledger/pkg/platform/audit"
)

// Sampler keeps a fraction of operations events. Rates are clamped to [0, 1].
type Sampler struct {
	mu           sync.RWMutex
	defaultRate  float64
	rateByAction map[string]float64
	rand         func() float64
}

func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		defaultRate:  clamp(defaultRate),
		rateByAction: make(map[string]float64),
		rand:         rand.Float64,
	}
}

// SetRate overrides the rate for one action.
func (s *Sampler) SetRate(action string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateByAction[action] = clamp(rate)
}

// Keep reports whether event should be kept. Compliance and security events
// are always kept.
func (s *Sampler) Keep(event audit.Event) bool {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	if category != audit.CategoryOperations {
		return true
	}
	return s.rand() < s.rateFor(event.Action)
}

func (s *Sampler) rateFor(action string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rate, ok := s.rateByAction[action]; ok {
		return rate
	}
	return s.defaultRate
}

func clamp(rate float64) float64 {
	return min(max(rate, 0), 1)
}

// SampledStore drops operations events the sampler rejects.
type SampledStore struct {
	name    string
	store   audit.Store
	sampler *Sampler
	metrics *Metrics
}

func NewSampledStore(name string, store audit.Store, sampler *Sampler, metrics *Metrics) *SampledStore {
	return &SampledStore{
		name:    name,
		store:   store,
		sampler: sampler,
		metrics: metrics,
	}
}

func (s *SampledStore) Append(ctx context.Context, event audit.Event) error {
	if !s.sampler.Keep(event) {
		s.metrics.incSampled(s.name)
		return nil
	}
	return s.store.Append(ctx, event)
}
