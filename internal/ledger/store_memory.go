package ledger

import (
	"context"
	"sync"
)

// InMemoryStore keeps commitments in process memory for tests and dev mode.
type InMemoryStore struct {
	mu          sync.RWMutex
	commitments map[string]Commitment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{commitments: make(map[string]Commitment)}
}

func (s *InMemoryStore) Find(_ context.Context, participantID string) (Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commitments[participantID]
	if !ok {
		return Commitment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) Save(_ context.Context, c Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments[c.ParticipantID] = c
	return nil
}
