package registry

import (
	"context"
	"sync"

	id "tracelink/pkg/domain"
	"tracelink/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in a mutex-guarded map. Used for local
// development and tests.
type InMemoryStore struct {
	mu           sync.RWMutex
	participants map[id.ParticipantID]Participant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{participants: make(map[id.ParticipantID]Participant)}
}

func (s *InMemoryStore) Create(_ context.Context, p Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.participants[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.participants[p.ID] = p
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, participant id.ParticipantID) (Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.participants[participant]; ok {
		return p, nil
	}
	return Participant{}, sentinel.ErrNotFound
}
