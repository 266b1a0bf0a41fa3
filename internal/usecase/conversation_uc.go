package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"telegram-directory-bot/internal/domain"
	"telegram-directory-bot/internal/domain/model"
	"telegram-directory-bot/internal/domain/ports/repository"
	"telegram-directory-bot/internal/infra/logging"
	"telegram-directory-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Reply texts sent back to the chat. The side effect always wins over the
// acknowledgment, so these are safe to resend.
const (
	ReplyAskName       = "Let's get you registered! Please send me your full name."
	ReplyAskEmail      = "Great, I found you. Now send me your email address to confirm."
	ReplyNameNotFound  = "I couldn't find that name. Please contact the office."
	ReplyLinked        = "✅ Registration complete! Your Telegram account is now linked."
	ReplyEmailMismatch = "That email doesn't match our records. Please contact the office."
	ReplySaved         = "✅ Your message has been saved!"
	ReplySaveFailed    = "❌ Failed to save your message."
	ReplyTransient     = "Something went wrong on our side. Please try again."
)

// Trigger phrases that start the registration flow (matched case-insensitively
// against the trimmed message text).
var registrationTriggers = map[string]struct{}{
	"add me":       {},
	"register":     {},
	"sign up":      {},
	"signup":       {},
	"link account": {},
	"join":         {},
}

// IsTrigger reports whether text starts the registration flow.
func IsTrigger(text string) bool {
	_, ok := registrationTriggers[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Compile-time check
var _ ConversationUseCase = (*convUC)(nil)

// ConversationUseCase drives the registration state machine for one inbound
// text message and returns the reply to send back to the chat. Remote-call
// failures surface as a generic failure reply plus a non-nil error for the
// caller to log; the conversation state is left unchanged in that case.
type ConversationUseCase interface {
	HandleMessage(ctx context.Context, msg *model.InboundMessage) (string, error)
}

const lockShards = 64

type convUC struct {
	states    repository.StateRepository
	directory repository.DirectoryRepository
	messages  repository.MessageLogRepository
	now       func() time.Time
	log       *zerolog.Logger

	// Updates from the same sender must not interleave; different senders
	// may proceed concurrently. Sharded locks keyed by sender id give the
	// per-sender serialization without an unbounded lock table.
	locks [lockShards]sync.Mutex
}

func NewConversationUseCase(
	states repository.StateRepository,
	directory repository.DirectoryRepository,
	messages repository.MessageLogRepository,
	logger *zerolog.Logger,
) *convUC {
	return &convUC{
		states:    states,
		directory: directory,
		messages:  messages,
		now:       time.Now,
		log:       logger,
	}
}

func (u *convUC) lockFor(senderID int64) *sync.Mutex {
	idx := uint64(senderID) % lockShards
	return &u.locks[idx]
}

func (u *convUC) HandleMessage(ctx context.Context, msg *model.InboundMessage) (string, error) {
	defer logging.TraceDuration(u.log, "ConversationUC.HandleMessage")()

	mu := u.lockFor(msg.SenderID)
	mu.Lock()
	defer mu.Unlock()

	st, err := u.states.GetState(ctx, msg.SenderID)
	if err != nil {
		return ReplyTransient, err
	}

	step := repository.StepNone
	if st != nil {
		step = st.Step
	}

	switch step {
	case repository.StepAwaitingName:
		return u.handleName(ctx, msg)
	case repository.StepAwaitingEmail:
		return u.handleEmail(ctx, msg, st)
	default:
		return u.handleIdle(ctx, msg)
	}
}

// handleIdle covers StepNone: a trigger word opens the registration flow,
// anything else is forwarded to the message log.
func (u *convUC) handleIdle(ctx context.Context, msg *model.InboundMessage) (string, error) {
	if IsTrigger(msg.Text) {
		state := &repository.ConversationState{Step: repository.StepAwaitingName}
		if err := u.states.SetState(ctx, msg.SenderID, state); err != nil {
			metrics.IncRegistration("trigger", "error")
			return ReplyTransient, err
		}
		metrics.IncRegistration("trigger", "started")
		return ReplyAskName, nil
	}

	saved := &model.SavedMessage{
		SenderID:    msg.SenderID,
		DisplayName: msg.DisplayName(),
		Text:        msg.Text,
		Timestamp:   u.now().UTC(),
	}
	if err := u.messages.Append(ctx, saved); err != nil {
		// Store failure acks differently from registration failures: the
		// user asked us to save a message and we could not.
		return ReplySaveFailed, err
	}
	return ReplySaved, nil
}

// handleName covers StepAwaitingName: look the sender up in the directory by
// the name they sent.
func (u *convUC) handleName(ctx context.Context, msg *model.InboundMessage) (string, error) {
	name := strings.TrimSpace(msg.Text)

	rec, err := u.directory.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Terminal: the flow does not retry a failed step.
			if cerr := u.states.ClearState(ctx, msg.SenderID); cerr != nil {
				return ReplyTransient, cerr
			}
			metrics.IncRegistration("name", "not_found")
			return ReplyNameNotFound, nil
		}
		// Transient directory outage: keep the state so the sender can
		// resend the same name without restarting.
		metrics.IncRegistration("name", "error")
		return ReplyTransient, err
	}

	next := &repository.ConversationState{
		Step:            repository.StepAwaitingEmail,
		PendingName:     name,
		MatchedRecordID: rec.ID,
	}
	if err := u.states.SetState(ctx, msg.SenderID, next); err != nil {
		metrics.IncRegistration("name", "error")
		return ReplyTransient, err
	}
	metrics.IncRegistration("name", "matched")
	u.log.Debug().
		Str("record_id", rec.ID).
		Int64("sender_id", msg.SenderID).
		Msg("directory name matched")
	return ReplyAskEmail, nil
}

// handleEmail covers StepAwaitingEmail: re-validate name and email together
// and require the same record that matched at the name step. Re-checking both
// fields closes the race where the directory changes between steps, at the
// cost of one extra remote read.
func (u *convUC) handleEmail(ctx context.Context, msg *model.InboundMessage, st *repository.ConversationState) (string, error) {
	email := strings.TrimSpace(msg.Text)

	rec, err := u.directory.FindByNameEmail(ctx, st.PendingName, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if cerr := u.states.ClearState(ctx, msg.SenderID); cerr != nil {
				return ReplyTransient, cerr
			}
			metrics.IncRegistration("email", "mismatch")
			return ReplyEmailMismatch, nil
		}
		metrics.IncRegistration("email", "error")
		return ReplyTransient, err
	}

	if rec.ID != st.MatchedRecordID {
		// A different record now matches; treat as mismatch and make no
		// directory mutation.
		if cerr := u.states.ClearState(ctx, msg.SenderID); cerr != nil {
			return ReplyTransient, cerr
		}
		metrics.IncRegistration("email", "record_changed")
		return ReplyEmailMismatch, nil
	}

	if err := u.directory.Link(ctx, rec.ID, msg.SenderID); err != nil {
		// Keep the state: the sender can resend the email once the
		// directory is reachable again.
		metrics.IncRegistration("email", "error")
		return ReplyTransient, err
	}

	if cerr := u.states.ClearState(ctx, msg.SenderID); cerr != nil {
		// The link already happened; a stale state entry only means the
		// next message is misread, so report the transient error.
		return ReplyTransient, cerr
	}
	metrics.IncRegistration("email", "linked")
	u.log.Info().
		Str("record_id", rec.ID).
		Int64("sender_id", msg.SenderID).
		Msg("telegram account linked")
	return ReplyLinked, nil
}
