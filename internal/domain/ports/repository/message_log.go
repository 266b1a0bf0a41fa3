package repository

import (
	"context"

	"telegram-directory-bot/internal/domain/model"
)

// MessageLogRepository is the port to the remote append-only message log.
// No batching and no dedup: appending the same message twice yields two rows.
type MessageLogRepository interface {
	Append(ctx context.Context, msg *model.SavedMessage) error
}
