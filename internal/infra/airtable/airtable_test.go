//go:build !integration

package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"telegram-directory-bot/internal/config"
	"telegram-directory-bot/internal/domain"
	"telegram-directory-bot/internal/domain/model"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

type capturedRequest struct {
	method  string
	path    string
	auth    string
	formula string
	body    map[string]any
}

// fakeAirtable records requests and plays back canned responses.
type fakeAirtable struct {
	mu       sync.Mutex
	requests []capturedRequest

	status int
	body   string
}

func (f *fakeAirtable) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := capturedRequest{
			method:  r.Method,
			path:    r.URL.Path,
			auth:    r.Header.Get("Authorization"),
			formula: r.URL.Query().Get("filterByFormula"),
		}
		if r.Body != nil {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			req.body = body
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}
}

func (f *fakeAirtable) last(t *testing.T) capturedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no requests captured")
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, fake *fakeAirtable) *Client {
	t.Helper()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	cfg := &config.AirtableConfig{
		APIKey:  "secret-key",
		BaseID:  "appBase1",
		APIURL:  ts.URL,
		Timeout: 5 * time.Second,
	}
	c, err := NewClient(cfg, newTestLogger())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestDirectoryRepo_FindByName(t *testing.T) {
	ctx := context.Background()

	t.Run("maps the first matching record", func(t *testing.T) {
		fake := &fakeAirtable{status: http.StatusOK, body: `{
			"records": [
				{"id": "rec1", "fields": {"Name": "Jane Doe", "Email": "jane@x.com"}},
				{"id": "rec9", "fields": {"Name": "Jane Doe", "Email": "other@x.com"}}
			]
		}`}
		repo := NewDirectoryRepo(newTestClient(t, fake), "Contacts", newTestLogger())

		rec, err := repo.FindByName(ctx, "  Jane DOE ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.ID != "rec1" || rec.Name != "Jane Doe" || rec.Email != "jane@x.com" {
			t.Fatalf("record mapped wrong: %+v", rec)
		}

		req := fake.last(t)
		if req.method != http.MethodGet {
			t.Errorf("method %s", req.method)
		}
		if req.path != "/appBase1/Contacts" {
			t.Errorf("path %s", req.path)
		}
		if req.auth != "Bearer secret-key" {
			t.Errorf("auth header %q", req.auth)
		}
		want := `LOWER(TRIM({Name}))="jane doe"`
		if req.formula != want {
			t.Errorf("formula %q, want %q", req.formula, want)
		}
	})

	t.Run("empty result is ErrNotFound", func(t *testing.T) {
		fake := &fakeAirtable{status: http.StatusOK, body: `{"records": []}`}
		repo := NewDirectoryRepo(newTestClient(t, fake), "Contacts", newTestLogger())

		_, err := repo.FindByName(ctx, "Nobody")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("remote failure carries status and body", func(t *testing.T) {
		fake := &fakeAirtable{status: http.StatusUnprocessableEntity, body: `{"error":"INVALID_FILTER_BY_FORMULA"}`}
		repo := NewDirectoryRepo(newTestClient(t, fake), "Contacts", newTestLogger())

		_, err := repo.FindByName(ctx, "Jane Doe")
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("expected RequestError, got %v", err)
		}
		if reqErr.Status != http.StatusUnprocessableEntity {
			t.Errorf("status %d", reqErr.Status)
		}
		if reqErr.Body == "" {
			t.Error("body not captured")
		}
	})
}

func TestDirectoryRepo_FindByNameEmail(t *testing.T) {
	fake := &fakeAirtable{status: http.StatusOK, body: `{
		"records": [{"id": "rec1", "fields": {"Name": "Jane Doe", "Email": "jane@x.com"}}]
	}`}
	repo := NewDirectoryRepo(newTestClient(t, fake), "Contacts", newTestLogger())

	rec, err := repo.FindByNameEmail(context.Background(), "Jane Doe", "JANE@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "rec1" {
		t.Fatalf("record %+v", rec)
	}

	want := `AND(LOWER(TRIM({Name}))="jane doe",LOWER(TRIM({Email}))="jane@x.com")`
	if got := fake.last(t).formula; got != want {
		t.Errorf("formula %q, want %q", got, want)
	}
}

func TestDirectoryRepo_Link(t *testing.T) {
	fake := &fakeAirtable{status: http.StatusOK, body: `{"id": "rec1"}`}
	repo := NewDirectoryRepo(newTestClient(t, fake), "Contacts", newTestLogger())
	ctx := context.Background()

	if err := repo.Link(ctx, "rec1", 42); err != nil {
		t.Fatalf("link: %v", err)
	}
	req := fake.last(t)
	if req.method != http.MethodPatch || req.path != "/appBase1/Contacts/rec1" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	fields, _ := req.body["fields"].(map[string]any)
	if fields["Telegram ID"] != "42" {
		t.Fatalf("fields %+v", fields)
	}

	// Linking again with the same arguments succeeds: the patch is a plain
	// overwrite on the remote side.
	if err := repo.Link(ctx, "rec1", 42); err != nil {
		t.Fatalf("second link: %v", err)
	}
}

func TestMessageLogRepo_Append(t *testing.T) {
	fake := &fakeAirtable{status: http.StatusOK, body: `{"records": [{"id": "recM"}]}`}
	repo := NewMessageLogRepo(newTestClient(t, fake), "Telegram messages")

	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	err := repo.Append(context.Background(), &model.SavedMessage{
		SenderID:    42,
		DisplayName: "Jane Doe",
		Text:        "hello",
		Timestamp:   ts,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	req := fake.last(t)
	if req.method != http.MethodPost || req.path != "/appBase1/Telegram messages" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	records, _ := req.body["records"].([]any)
	if len(records) != 1 {
		t.Fatalf("records %+v", req.body)
	}
	fields := records[0].(map[string]any)["fields"].(map[string]any)
	if fields["User ID"] != "42" || fields["Name"] != "Jane Doe" || fields["Message"] != "hello" {
		t.Fatalf("fields %+v", fields)
	}
	if fields["Timestamp"] != "2024-05-01T09:30:00Z" {
		t.Fatalf("timestamp %v", fields["Timestamp"])
	}
}

func TestFormulaString(t *testing.T) {
	got := formulaString(`she said "hi" \ there`)
	want := `"she said \"hi\" \\ there"`
	if got != want {
		t.Fatalf("formulaString: %s, want %s", got, want)
	}
}
