package repository

import (
	"context"

	"telegram-directory-bot/internal/domain/model"
)

// DirectoryRepository is the port to the external identity directory.
type DirectoryRepository interface {
	// FindByName returns the first record whose Name equals name,
	// case-insensitively and ignoring surrounding whitespace.
	// Returns domain.ErrNotFound when nothing matches. Duplicate directory
	// entries are a data-quality problem: the first remote match wins.
	FindByName(ctx context.Context, name string) (*model.DirectoryRecord, error)

	// FindByNameEmail looks a record up by name and email together.
	// Same matching and not-found semantics as FindByName.
	FindByNameEmail(ctx context.Context, name, email string) (*model.DirectoryRecord, error)

	// Link writes the sender's telegram id into the record. Idempotent:
	// linking the same id twice succeeds with no additional effect.
	Link(ctx context.Context, recordID string, senderID int64) error
}
