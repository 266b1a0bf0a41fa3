package model

// DirectoryRecord mirrors one row of the external identity directory.
// The directory owns these rows; the bot never caches them beyond the
// single lookup needed to validate a registration step.
type DirectoryRecord struct {
	ID         string
	Name       string
	Email      string
	TelegramID string // empty until the record is linked
}
