package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *TelegramClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewTelegramClient(TelegramConfig{BaseURL: server.URL, BotToken: "123:abc", Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestTelegramSendMessage(t *testing.T) {
	client := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:abc/sendMessage" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			ChatID      string         `json:"chat_id"`
			ParseMode   string         `json:"parse_mode"`
			ReplyMarkup InlineKeyboard `json:"reply_markup"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ChatID != "42" || body.ParseMode != "Markdown" {
			t.Fatalf("unexpected body %+v", body)
		}
		if got := body.ReplyMarkup.InlineKeyboard[0][1].CallbackData; got != "decline:7" {
			t.Fatalf("unexpected callback data %q", got)
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":99}}`))
	})

	id, err := client.SendMessage(context.Background(), "42", "hello", &InlineKeyboard{InlineKeyboard: [][]InlineButton{{
		{Text: "yes", CallbackData: "approve:7"}, {Text: "no", CallbackData: "decline:7"},
	}}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != 99 {
		t.Fatalf("expected message id 99, got %d", id)
	}
}

func TestTelegramErrorStatus(t *testing.T) {
	client := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
	})

	err := client.EditMessageText(context.Background(), "42", 1, "done")
	var statusErr *gateway.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if !gateway.IsRetryable(err) {
		t.Fatalf("429 should be retryable")
	}
}

func TestTelegramNotOK(t *testing.T) {
	client := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"query is too old"}`))
	})

	err := client.AnswerCallbackQuery(context.Background(), "cb-1", "")
	if err == nil || gateway.IsRetryable(err) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestNewTelegramClientRequiresToken(t *testing.T) {
	if _, err := NewTelegramClient(TelegramConfig{}); err == nil {
		t.Fatal("expected error without token")
	}
}
