package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-directory-bot/internal/domain/model"
	"telegram-directory-bot/internal/domain/ports/adapter"
	"telegram-directory-bot/internal/domain/ports/repository"
)

// UpdateHandler is what the intake needs from the application layer: one
// processed message in, one reply string out.
type UpdateHandler interface {
	HandleTextMessage(ctx context.Context, msg *model.InboundMessage) string
}

// RateLimiter bounds how many messages one sender may push through the
// webhook. A nil limiter disables limiting.
type RateLimiter interface {
	Allow(ctx context.Context, senderID int64) (bool, error)
}

// Server is the webhook intake: it owns the HTTP surface (webhook, health,
// metrics) and the at-most-once guarantee around update processing.
type Server struct {
	handler     UpdateHandler
	dedup       repository.UpdateDedupRepository
	limiter     RateLimiter
	dispatcher  adapter.ReplyDispatcher
	webhookPath string
	log         *zerolog.Logger
}

func NewServer(
	handler UpdateHandler,
	dedup repository.UpdateDedupRepository,
	limiter RateLimiter,
	dispatcher adapter.ReplyDispatcher,
	webhookPath string,
	logger *zerolog.Logger,
) *Server {
	if webhookPath == "" {
		webhookPath = "/webhook"
	}
	return &Server{
		handler:     handler,
		dedup:       dedup,
		limiter:     limiter,
		dispatcher:  dispatcher,
		webhookPath: webhookPath,
		log:         logger,
	}
}

// Router builds the chi router with the common middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(30 * time.Second))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Bot is running!"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post(s.webhookPath, s.handleWebhook)
	return r
}
