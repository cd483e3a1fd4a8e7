package memory

import (
	"context"
	"sync"

	audit "reliefledger/pkg/platform/audit"
)

// InMemoryStore keeps audit events in append order for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByRecord returns the events of one record, oldest first.
func (s *InMemoryStore) ListByRecord(_ context.Context, registry string, recordID uint64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Registry == registry && e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByActors returns every event attempted by any of actors, oldest first.
func (s *InMemoryStore) ListByActors(_ context.Context, actors []string) ([]audit.Event, error) {
	if len(actors) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		wanted[a] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if _, ok := wanted[e.Actor]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every event, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListRecent returns at most limit of the newest events, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.events)-limit, 0)
	return append([]audit.Event{}, s.events[start:]...), nil
}
