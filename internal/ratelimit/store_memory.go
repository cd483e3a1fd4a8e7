package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps one sliding window per key in process memory.
type InMemoryStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	clock   func() time.Time
}

// MemoryOption configures an InMemoryStore.
type MemoryOption func(*InMemoryStore)

func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		s.clock = clock
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		buckets: make(map[string][]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	timestamps := prune(s.buckets[key], now.Add(-window))

	if len(timestamps) >= limit {
		s.buckets[key] = timestamps
		reset := now.Add(window)
		if len(timestamps) > 0 {
			reset = timestamps[0].Add(window)
		}
		return Result{Allowed: false, Limit: limit, ResetAt: reset}, nil
	}

	timestamps = append(timestamps, now)
	s.buckets[key] = timestamps
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(timestamps),
		ResetAt:   timestamps[0].Add(window),
	}, nil
}

// prune drops timestamps at or before cutoff.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
