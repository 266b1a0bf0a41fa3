//go:build !integration

package usecase_test

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"telegram-directory-bot/internal/domain"
	"telegram-directory-bot/internal/domain/model"
	"telegram-directory-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// ---- in-memory StateRepository ----

type mockStateRepo struct {
	mu     sync.Mutex
	states map[int64]repository.ConversationState

	getErr   error
	setErr   error
	clearErr error
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{states: make(map[int64]repository.ConversationState)}
}

func (m *mockStateRepo) GetState(ctx context.Context, senderID int64) (*repository.ConversationState, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[senderID]
	if !ok {
		return nil, nil
	}
	cp := st
	return &cp, nil
}

func (m *mockStateRepo) SetState(ctx context.Context, senderID int64, state *repository.ConversationState) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[senderID] = *state
	return nil
}

func (m *mockStateRepo) ClearState(ctx context.Context, senderID int64) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, senderID)
	return nil
}

// ---- in-memory DirectoryRepository ----

type linkCall struct {
	recordID string
	senderID int64
}

type mockDirectoryRepo struct {
	mu      sync.Mutex
	records []*model.DirectoryRecord

	findErr error
	linkErr error

	lookups   int
	linkCalls []linkCall
}

func newMockDirectoryRepo(records ...*model.DirectoryRecord) *mockDirectoryRepo {
	return &mockDirectoryRepo{records: records}
}

func formatSender(id int64) string { return strconv.FormatInt(id, 10) }

func matches(field, value string) bool {
	return strings.EqualFold(strings.TrimSpace(field), strings.TrimSpace(value))
}

func (m *mockDirectoryRepo) FindByName(ctx context.Context, name string) (*model.DirectoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.records {
		if matches(r.Name, name) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDirectoryRepo) FindByNameEmail(ctx context.Context, name, email string) (*model.DirectoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.records {
		if matches(r.Name, name) && matches(r.Email, email) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDirectoryRepo) Link(ctx context.Context, recordID string, senderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkErr != nil {
		return m.linkErr
	}
	m.linkCalls = append(m.linkCalls, linkCall{recordID: recordID, senderID: senderID})
	for _, r := range m.records {
		if r.ID == recordID {
			r.TelegramID = formatSender(senderID)
		}
	}
	return nil
}

func (m *mockDirectoryRepo) links() []linkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]linkCall, len(m.linkCalls))
	copy(out, m.linkCalls)
	return out
}

func (m *mockDirectoryRepo) replaceRecord(id string, rec *model.DirectoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.records[i] = rec
		}
	}
}

// ---- in-memory MessageLogRepository ----

type mockMessageLog struct {
	mu       sync.Mutex
	appended []*model.SavedMessage

	appendErr error
}

func newMockMessageLog() *mockMessageLog {
	return &mockMessageLog{}
}

func (m *mockMessageLog) Append(ctx context.Context, msg *model.SavedMessage) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.appended = append(m.appended, &cp)
	return nil
}

func (m *mockMessageLog) entries() []*model.SavedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SavedMessage, len(m.appended))
	copy(out, m.appended)
	return out
}
