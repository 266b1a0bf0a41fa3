package repository

import (
	"context"
)

// UpdateDedupRepository reserves webhook update ids so each update is
// handled at most once, even when the platform redelivers.
type UpdateDedupRepository interface {
	// Reserve marks the update id as seen. Returns false when the id was
	// already reserved, meaning the update must be skipped.
	Reserve(ctx context.Context, updateID int) (bool, error)
}
