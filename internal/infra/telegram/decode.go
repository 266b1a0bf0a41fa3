package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-directory-bot/internal/domain"
	"telegram-directory-bot/internal/domain/model"
)

// DecodeUpdate turns one raw webhook body into the platform-neutral inbound
// message. Anything that is not a well-formed text message from an
// identifiable sender is a decode error: the intake answers with a client
// error and the state machine is never invoked.
func DecodeUpdate(body []byte) (*model.InboundMessage, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("%w: malformed update payload", domain.ErrInvalidArgument)
	}

	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return nil, fmt.Errorf("%w: update carries no text message", domain.ErrInvalidArgument)
	}
	if m.Text == "" {
		return nil, fmt.Errorf("%w: message has no text", domain.ErrInvalidArgument)
	}

	return model.NewInboundMessage(
		update.UpdateID,
		m.From.ID,
		m.Chat.ID,
		m.From.FirstName,
		m.From.LastName,
		m.Text,
	)
}
