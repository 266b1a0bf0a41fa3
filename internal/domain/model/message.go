package model

import (
	"strings"
	"time"

	"telegram-directory-bot/internal/domain"
)

// InboundMessage is the platform-neutral shape of a single text update.
// It is built once per webhook call and never mutated afterwards.
type InboundMessage struct {
	UpdateID  int
	SenderID  int64
	ChatID    int64
	FirstName string
	LastName  string // possibly empty
	Text      string
}

// NewInboundMessage validates the minimum fields a text update must carry.
func NewInboundMessage(updateID int, senderID, chatID int64, firstName, lastName, text string) (*InboundMessage, error) {
	if senderID == 0 || chatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &InboundMessage{
		UpdateID:  updateID,
		SenderID:  senderID,
		ChatID:    chatID,
		FirstName: firstName,
		LastName:  lastName,
		Text:      text,
	}, nil
}

// DisplayName joins first and last name, tolerating a missing surname.
func (m *InboundMessage) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// SavedMessage is one append-only entry in the remote message log.
type SavedMessage struct {
	SenderID    int64
	DisplayName string
	Text        string
	Timestamp   time.Time
}
