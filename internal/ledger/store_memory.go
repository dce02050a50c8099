package ledger

import (
	"context"
	"sync"

	id "tracelink/pkg/domain"
)

// InMemoryStore keeps the event log in a slice; the index of an event is its
// id, which makes the dense-sequence invariant structural rather than
// enforced.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = uint64(len(s.events))
	event.Metadata = append([]MetadataPair(nil), event.Metadata...)
	s.events = append(s.events, event)
	return event.ID, nil
}

func (s *InMemoryStore) ListByProduct(_ context.Context, product id.ProductID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.ProductID == product {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListSince(_ context.Context, cursor int64) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cursor >= int64(len(s.events))-1 {
		return nil, nil
	}
	start := cursor + 1
	if start < 0 {
		start = 0
	}
	return append([]Event(nil), s.events[start:]...), nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events)), nil
}
