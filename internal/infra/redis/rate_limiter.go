package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// SenderKey scopes the message rate limit to one sender.
func SenderKey(senderID int64) string {
	return fmt.Sprintf("rate_limit:%d:message", senderID)
}

// MessageLimiter applies the per-sender inbound message limit on top of the
// generic fixed-window limiter.
type MessageLimiter struct {
	rl     *RateLimiter
	limit  int
	window time.Duration
}

func NewMessageLimiter(client *Client, perMinute int) *MessageLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &MessageLimiter{
		rl:     NewRateLimiter(client),
		limit:  perMinute,
		window: time.Minute,
	}
}

func (m *MessageLimiter) Allow(ctx context.Context, senderID int64) (bool, error) {
	return m.rl.Allow(ctx, SenderKey(senderID), m.limit, m.window)
}
