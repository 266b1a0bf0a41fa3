package repository

import (
	"context"
)

// Step identifies where a sender is in the registration conversation.
type Step string

const (
	StepNone          Step = ""
	StepAwaitingName  Step = "awaiting_name"
	StepAwaitingEmail Step = "awaiting_email"
)

// ConversationState holds one sender's registration progress.
// Invariant: StepAwaitingEmail implies PendingName and MatchedRecordID are set.
type ConversationState struct {
	Step            Step   `json:"step"`
	PendingName     string `json:"pending_name,omitempty"`
	MatchedRecordID string `json:"matched_record_id,omitempty"`
}

// StateRepository is the port for managing per-sender conversation state.
// GetState returns (nil, nil) when the sender has no state entry, which is
// the StepNone case. Implementations must be safe for concurrent use.
type StateRepository interface {
	GetState(ctx context.Context, senderID int64) (*ConversationState, error)
	SetState(ctx context.Context, senderID int64, state *ConversationState) error
	ClearState(ctx context.Context, senderID int64) error
}
