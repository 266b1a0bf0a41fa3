package airtable

import (
	"context"
	"strconv"
	"time"

	"telegram-directory-bot/internal/domain/model"
	"telegram-directory-bot/internal/domain/ports/repository"
)

// Message log field names in the remote table.
const (
	fieldUserID    = "User ID"
	fieldLogName   = "Name"
	fieldMessage   = "Message"
	fieldTimestamp = "Timestamp"
)

var _ repository.MessageLogRepository = (*MessageLogRepo)(nil)

// MessageLogRepo appends received messages to the remote log table.
// Write-once, append-only: there is no update or delete path.
type MessageLogRepo struct {
	client *Client
	table  string
}

func NewMessageLogRepo(client *Client, table string) *MessageLogRepo {
	return &MessageLogRepo{client: client, table: table}
}

func (r *MessageLogRepo) Append(ctx context.Context, msg *model.SavedMessage) error {
	body := recordList{Records: []record{{
		Fields: map[string]any{
			fieldUserID:    strconv.FormatInt(msg.SenderID, 10),
			fieldLogName:   msg.DisplayName,
			fieldMessage:   msg.Text,
			fieldTimestamp: msg.Timestamp.UTC().Format(time.RFC3339),
		},
	}}}
	return r.client.post(ctx, "message_append", r.table, body, nil)
}
