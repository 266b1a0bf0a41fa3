// Package memstate holds the single-instance implementations of the
// conversation state and update-dedup ports: guarded in-memory maps with a
// TTL, lost on restart. Registration is short-lived and re-triggerable by the
// user, so losing this state is acceptable. Multi-instance deployments use
// the redis implementations instead.
package memstate

import (
	"context"
	"sync"
	"time"

	"telegram-directory-bot/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

type stateEntry struct {
	state    repository.ConversationState
	deadline time.Time
}

// StateRepo is an in-memory StateRepository guarded by a mutex.
type StateRepo struct {
	mu      sync.Mutex
	entries map[int64]stateEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewStateRepo(ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateRepo{
		entries: make(map[int64]stateEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *StateRepo) GetState(ctx context.Context, senderID int64) (*repository.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[senderID]
	if !ok {
		return nil, nil
	}
	if s.now().After(e.deadline) {
		delete(s.entries, senderID)
		return nil, nil
	}
	cp := e.state
	return &cp, nil
}

func (s *StateRepo) SetState(ctx context.Context, senderID int64, state *repository.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[senderID] = stateEntry{
		state:    *state,
		deadline: s.now().Add(s.ttl),
	}
	return nil
}

func (s *StateRepo) ClearState(ctx context.Context, senderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, senderID)
	return nil
}
