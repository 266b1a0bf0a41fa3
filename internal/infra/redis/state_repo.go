package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-directory-bot/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo manages per-sender conversation state in Redis, for deployments
// running more than one bot instance behind the webhook.
type StateRepo struct {
	client *Client
	ttl    time.Duration
}

func NewStateRepo(client *Client, ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute // give users 15 minutes to finish the flow
	}
	return &StateRepo{client: client, ttl: ttl}
}

func (s *StateRepo) stateKey(senderID int64) string {
	return fmt.Sprintf("conv_state:%d", senderID)
}

func (s *StateRepo) SetState(ctx context.Context, senderID int64, state *repository.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(senderID), data, s.ttl)
}

func (s *StateRepo) GetState(ctx context.Context, senderID int64) (*repository.ConversationState, error) {
	data, ok, err := s.client.Get(ctx, s.stateKey(senderID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var state repository.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, senderID int64) error {
	return s.client.Del(ctx, s.stateKey(senderID))
}
