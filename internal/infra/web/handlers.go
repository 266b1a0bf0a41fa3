package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"telegram-directory-bot/internal/infra/logging"
	"telegram-directory-bot/internal/infra/metrics"
	"telegram-directory-bot/internal/infra/telegram"
)

const replyRateLimited = "You're sending messages too fast. Please slow down."

// maxUpdateBody bounds how much of a webhook payload is read.
const maxUpdateBody = 1 << 20

type webhookResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body webhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// handleWebhook processes one platform update synchronously: the 200 answer
// means the update was fully handled (or deliberately skipped). Decode errors
// answer 4xx without touching any state; everything past the dedup
// reservation answers 200 so the platform does not redeliver an update we
// already reserved.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBody))
	if err != nil {
		metrics.IncUpdate("decode_error")
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Error: "unreadable body"})
		return
	}

	msg, err := telegram.DecodeUpdate(body)
	if err != nil {
		metrics.IncUpdate("decode_error")
		l.Warn().Err(err).Msg("rejecting malformed update")
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Error: "malformed update"})
		return
	}

	ctx = logging.WithSenderID(ctx, msg.SenderID)
	l = logging.With(ctx, s.log)

	// At-most-once: reserve the update id before doing anything. When the
	// reservation itself fails we skip the update rather than risk running
	// it twice; losing one update is within the at-most-once contract.
	reserved, err := s.dedup.Reserve(ctx, msg.UpdateID)
	if err != nil {
		metrics.IncUpdate("dedup_error")
		l.Error().Err(err).Int("update_id", msg.UpdateID).Msg("dedup reservation failed, skipping update")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "skipped"})
		return
	}
	if !reserved {
		metrics.IncUpdate("duplicate")
		l.Debug().Int("update_id", msg.UpdateID).Msg("duplicate update skipped")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "duplicate"})
		return
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, msg.SenderID)
		switch {
		case err != nil:
			// Limiter trouble must not block the flow.
			l.Warn().Err(err).Msg("rate limiter unavailable")
		case !allowed:
			metrics.IncUpdate("rate_limited")
			s.reply(ctx, msg.ChatID, replyRateLimited)
			writeJSON(w, http.StatusOK, webhookResponse{Status: "rate_limited"})
			return
		}
	}

	reply := s.handler.HandleTextMessage(ctx, msg)
	if reply != "" {
		s.reply(ctx, msg.ChatID, reply)
	}

	metrics.IncUpdate("ok")
	metrics.ObserveUpdateLatency("ok", float64(time.Since(start).Milliseconds()))
	writeJSON(w, http.StatusOK, webhookResponse{Status: "ok"})
}

// reply forwards the acknowledgment; a failed send is logged and dropped, it
// never affects the outcome of the processing it acknowledges.
func (s *Server) reply(ctx context.Context, chatID int64, text string) {
	if err := s.dispatcher.SendMessage(ctx, chatID, text); err != nil {
		logging.With(ctx, s.log).Warn().Err(err).Int64("chat_id", chatID).Msg("reply delivery failed")
	}
}
