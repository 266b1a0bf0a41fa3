package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-directory-bot/internal/domain/ports/repository"
)

var _ repository.UpdateDedupRepository = (*UpdateDedup)(nil)

// UpdateDedup reserves update ids with SETNX so redelivered updates are
// skipped across all bot instances sharing the Redis.
type UpdateDedup struct {
	client *Client
	ttl    time.Duration
}

func NewUpdateDedup(client *Client, ttl time.Duration) *UpdateDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UpdateDedup{client: client, ttl: ttl}
}

func (d *UpdateDedup) Reserve(ctx context.Context, updateID int) (bool, error) {
	key := fmt.Sprintf("tg_update:%d", updateID)
	return d.client.SetNX(ctx, key, "1", d.ttl)
}
