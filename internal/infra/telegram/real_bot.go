package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-directory-bot/internal/config"
	"telegram-directory-bot/internal/domain/ports/adapter"
	"telegram-directory-bot/internal/infra/metrics"
)

var _ adapter.ReplyDispatcher = (*Bot)(nil)

// Bot implements the reply dispatcher with tgbotapi and registers the
// webhook with Telegram at startup.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.BotConfig
	log *zerolog.Logger

	// Replies are best-effort but transient send failures are common enough
	// that a couple of quick retries noticeably improve the ack rate.
	maxRetries int
	backoff    time.Duration
}

func NewBot(cfg *config.BotConfig, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")

	return &Bot{
		api:        api,
		cfg:        cfg,
		log:        logger,
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}, nil
}

// RegisterWebhook points Telegram at the public webhook URL.
func (b *Bot) RegisterWebhook(ctx context.Context, publicURL string) error {
	wh, err := tgbotapi.NewWebhook(publicURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	b.log.Info().Str("url", publicURL).Msg("webhook registered")
	return nil
}

// SendMessage sends the acknowledgment text to the chat, retrying briefly on
// failure. A final failure is reported to the caller for logging only; it
// must never roll back the state transition or store write behind it.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				metrics.IncReply(false)
				return ctx.Err()
			case <-time.After(b.backoff * time.Duration(attempt)):
			}
		}
		if _, err := b.api.Send(msg); err != nil {
			lastErr = err
			continue
		}
		metrics.IncReply(true)
		return nil
	}

	metrics.IncReply(false)
	return fmt.Errorf("send reply to chat %d: %w", chatID, lastErr)
}
