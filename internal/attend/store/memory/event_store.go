package memory

import (
	"context"
	"sync"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

// EventStore is an in-memory append-only event log for tests and dev
// environments. Mirrors the sqlite store's duplicate-key suppression.
type EventStore struct {
	mu     sync.Mutex
	events []types.ClassifiedEvent
	keys   map[string]struct{}
}

func NewEventStore() *EventStore {
	return &EventStore{keys: make(map[string]struct{})}
}

func (s *EventStore) AppendEvents(_ context.Context, events []types.ClassifiedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		key := e.PersonID + "_" + e.Timestamp
		if _, dup := s.keys[key]; dup {
			continue
		}
		s.keys[key] = struct{}{}
		s.events = append(s.events, e)
	}
	return nil
}

func (s *EventStore) LoadKeys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *EventStore) RecentEvents(_ context.Context, limit int) ([]types.ClassifiedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]types.ClassifiedEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Events returns a copy of all stored events in append order. Test-only
// helper.
func (s *EventStore) Events() []types.ClassifiedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ClassifiedEvent, len(s.events))
	copy(out, s.events)
	return out
}
