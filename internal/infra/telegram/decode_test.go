//go:build !integration

package telegram

import (
	"errors"
	"testing"

	"telegram-directory-bot/internal/domain"
)

func TestDecodeUpdate(t *testing.T) {
	t.Run("valid text message", func(t *testing.T) {
		body := []byte(`{
			"update_id": 55,
			"message": {
				"message_id": 9,
				"from": {"id": 42, "first_name": "Jane", "last_name": "Doe"},
				"chat": {"id": 43},
				"text": "register"
			}
		}`)
		msg, err := DecodeUpdate(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.UpdateID != 55 || msg.SenderID != 42 || msg.ChatID != 43 || msg.Text != "register" {
			t.Fatalf("decoded %+v", msg)
		}
		if msg.DisplayName() != "Jane Doe" {
			t.Errorf("display name %q", msg.DisplayName())
		}
	})

	t.Run("missing surname is tolerated", func(t *testing.T) {
		body := []byte(`{
			"update_id": 56,
			"message": {
				"message_id": 9,
				"from": {"id": 42, "first_name": "Jane"},
				"chat": {"id": 43},
				"text": "hi"
			}
		}`)
		msg, err := DecodeUpdate(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.DisplayName() != "Jane" {
			t.Errorf("display name %q", msg.DisplayName())
		}
	})

	t.Run("rejects non-text and malformed payloads", func(t *testing.T) {
		cases := map[string][]byte{
			"broken json":     []byte(`{"update_id":`),
			"no message":      []byte(`{"update_id": 1}`),
			"no text":         []byte(`{"update_id": 1, "message": {"message_id": 1, "from": {"id": 2, "first_name": "A"}, "chat": {"id": 2}}}`),
			"no sender":       []byte(`{"update_id": 1, "message": {"message_id": 1, "chat": {"id": 2}, "text": "x"}}`),
			"callback update": []byte(`{"update_id": 1, "callback_query": {"id": "cb1", "data": "cmd:menu"}}`),
		}
		for name, body := range cases {
			if _, err := DecodeUpdate(body); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
			}
		}
	})
}
