package application

import (
	"context"

	"telegram-directory-bot/internal/domain/model"
	"telegram-directory-bot/internal/infra/logging"
	"telegram-directory-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// BotFacade is the single entry point the delivery layers call for an inbound
// text message. It runs the conversation state machine and absorbs its
// errors: whatever happens, the caller gets a reply string it can forward to
// the chat, and the process never sees the failure as anything but a log line.
type BotFacade struct {
	ConvUC usecase.ConversationUseCase
	log    *zerolog.Logger
	dev    bool
}

func NewBotFacade(convUC usecase.ConversationUseCase, logger *zerolog.Logger, dev bool) *BotFacade {
	return &BotFacade{ConvUC: convUC, log: logger, dev: dev}
}

// HandleTextMessage processes one inbound message and returns the reply text.
func (b *BotFacade) HandleTextMessage(ctx context.Context, msg *model.InboundMessage) string {
	l := logging.With(ctx, b.log)

	reply, err := b.ConvUC.HandleMessage(ctx, msg)
	if err != nil {
		l.Error().Err(err).
			Int64("sender_id", msg.SenderID).
			Int("update_id", msg.UpdateID).
			Str("text", logging.Redact(msg.Text, b.dev)).
			Msg("conversation handling failed")
	}
	return reply
}
