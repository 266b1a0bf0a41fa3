// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-directory-bot/internal/application"
	"telegram-directory-bot/internal/config"
	"telegram-directory-bot/internal/domain/ports/repository"
	"telegram-directory-bot/internal/infra/airtable"
	"telegram-directory-bot/internal/infra/logging"
	"telegram-directory-bot/internal/infra/memstate"
	"telegram-directory-bot/internal/infra/metrics"
	red "telegram-directory-bot/internal/infra/redis"
	tele "telegram-directory-bot/internal/infra/telegram"
	"telegram-directory-bot/internal/infra/web"
	"telegram-directory-bot/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Airtable ----
	atClient, err := airtable.NewClient(&cfg.Airtable, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("airtable client")
	}
	directoryRepo := airtable.NewDirectoryRepo(atClient, cfg.Airtable.DirectoryTable, logger)
	messageRepo := airtable.NewMessageLogRepo(atClient, cfg.Airtable.MessageTable)

	// ---- Conversation state, dedup, rate limit ----
	// One bot instance needs nothing beyond process memory; point redis.url
	// at a shared instance when running more than one replica.
	var (
		states  repository.StateRepository
		dedup   repository.UpdateDedupRepository
		limiter web.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		states = red.NewStateRepo(redisClient, cfg.Redis.StateTTL)
		dedup = red.NewUpdateDedup(redisClient, cfg.Redis.DedupTTL)
		limiter = red.NewMessageLimiter(redisClient, cfg.RateLimit.PerMinute)
		logger.Info().Msg("using redis state store")
	} else {
		states = memstate.NewStateRepo(cfg.Redis.StateTTL)
		dedup = memstate.NewUpdateDedup(cfg.Redis.DedupTTL)
		logger.Info().Msg("using in-memory state store")
	}

	// ---- Conversation state machine ----
	convUC := usecase.NewConversationUseCase(states, directoryRepo, messageRepo, logger)
	facade := application.NewBotFacade(convUC, logger, cfg.Runtime.Dev)

	// ---- Telegram ----
	bot, err := tele.NewBot(&cfg.Bot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	if cfg.Bot.WebhookBaseURL != "" {
		publicURL := strings.TrimSuffix(cfg.Bot.WebhookBaseURL, "/") + cfg.Bot.WebhookPath
		if err := bot.RegisterWebhook(ctx, publicURL); err != nil {
			logger.Fatal().Err(err).Msg("register webhook")
		}
	} else {
		logger.Warn().Msg("bot.webhook_base_url not set; webhook must be registered out of band")
	}

	// ---- HTTP server ----
	srv := web.NewServer(facade, dedup, limiter, bot, cfg.Bot.WebhookPath, logger)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Bot.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Bot.Port).Str("path", cfg.Bot.WebhookPath).Msg("webhook server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
