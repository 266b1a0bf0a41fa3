package adapter

import "context"

// ReplyDispatcher sends a textual acknowledgment back to the originating
// chat. Delivery is best-effort: a failed reply is logged by callers and
// never rolls back the state transition or store write that already happened.
type ReplyDispatcher interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
