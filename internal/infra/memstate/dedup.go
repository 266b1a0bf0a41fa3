package memstate

import (
	"context"
	"sync"
	"time"

	"telegram-directory-bot/internal/domain/ports/repository"
)

var _ repository.UpdateDedupRepository = (*UpdateDedup)(nil)

// UpdateDedup remembers recently seen update ids. Entries expire after the
// TTL; expired ids are pruned lazily on reservation so the map stays bounded
// by the update rate within one TTL window.
type UpdateDedup struct {
	mu        sync.Mutex
	seen      map[int]time.Time // update id -> expiry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

func NewUpdateDedup(ttl time.Duration) *UpdateDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UpdateDedup{
		seen: make(map[int]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (d *UpdateDedup) Reserve(ctx context.Context, updateID int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.nextSweep.IsZero() && now.After(d.nextSweep) {
		for id, exp := range d.seen {
			if now.After(exp) {
				delete(d.seen, id)
			}
		}
	}
	if d.nextSweep.IsZero() || now.After(d.nextSweep) {
		d.nextSweep = now.Add(d.ttl / 4)
	}

	if exp, ok := d.seen[updateID]; ok && now.Before(exp) {
		return false, nil
	}
	d.seen[updateID] = now.Add(d.ttl)
	return true, nil
}
