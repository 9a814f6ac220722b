package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v3"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeProvider struct {
	err    error
	chatID int64
	texts  []string
}

func (f *fakeProvider) Send(ctx context.Context, chatID int64, text string) error {
	f.chatID = chatID
	f.texts = append(f.texts, text)
	return f.err
}

func TestNotifyDelivers(t *testing.T) {
	provider := &fakeProvider{}
	sender := New(provider, 42, testLogger())

	if !sender.Notify(context.Background(), "hello") {
		t.Fatal("Notify() = false, want true")
	}
	if provider.chatID != 42 {
		t.Errorf("chat id = %d, want 42", provider.chatID)
	}
	if len(provider.texts) != 1 || provider.texts[0] != "hello" {
		t.Errorf("texts = %v, want [hello]", provider.texts)
	}
}

func TestNotifySwallowsErrors(t *testing.T) {
	provider := &fakeProvider{err: errors.New("chat not found")}
	sender := New(provider, 42, testLogger())

	if sender.Notify(context.Background(), "hello") {
		t.Error("Notify() = true, want false on provider failure")
	}
}

func TestMockProvider(t *testing.T) {
	if err := NewMockProvider(testLogger()).Send(context.Background(), 1, "text"); err != nil {
		t.Errorf("MockProvider.Send() error = %v", err)
	}
}

// botAPI emulates the sendMessage method of the Bot API.
func botAPI(t *testing.T, status int, body string, hits *atomic.Int32, gotChat *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var params map[string]any
		if err := json.NewDecoder(r.Body).Decode(&params); err == nil && gotChat != nil {
			if v, ok := params["chat_id"].(string); ok {
				*gotChat = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newTestProvider(t *testing.T, apiURL string) *TelebotProvider {
	t.Helper()
	p, err := NewTelebotProvider("test-token", apiURL, &http.Client{Timeout: 5 * time.Second}, testLogger())
	if err != nil {
		t.Fatalf("NewTelebotProvider() error = %v", err)
	}
	p.delay = time.Millisecond
	p.maxDelay = 5 * time.Millisecond
	p.maxJitter = time.Millisecond
	return p
}

func TestTelebotProviderSend(t *testing.T) {
	var hits atomic.Int32
	var chat string
	srv := botAPI(t, http.StatusOK,
		`{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"hi"}}`,
		&hits, &chat)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	if err := p.Send(context.Background(), 42, "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
	if chat != "42" {
		t.Errorf("chat_id = %q, want %q", chat, "42")
	}
}

func TestTelebotProviderDoesNotRetryRejection(t *testing.T) {
	var hits atomic.Int32
	srv := botAPI(t, http.StatusBadRequest,
		`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
		&hits, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	if err := p.Send(context.Background(), 42, "hi"); err == nil {
		t.Fatal("Send() error = nil, want rejection")
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no retries on rejection)", hits.Load())
	}
}

func TestTelebotProviderDoesNotRetryUntypedRejection(t *testing.T) {
	var hits atomic.Int32
	srv := botAPI(t, http.StatusBadRequest,
		`{"ok":false,"error_code":400,"description":"Bad Request: something new"}`,
		&hits, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	if err := p.Send(context.Background(), 42, "hi"); err == nil {
		t.Fatal("Send() error = nil, want rejection")
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no retries on rejection)", hits.Load())
	}
}

func TestAPIErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"typed", tele.ErrChatNotFound, 400},
		{"untyped", errors.New("telegram: Bad Request: something new (400)"), 400},
		{"wrapped", fmt.Errorf("attempt: %w", errors.New("telegram: Forbidden: whatever (403)")), 403},
		{"server", errors.New("telegram: Internal Server Error (500)"), 500},
		{"transport", errors.New("dial tcp: connection refused"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apiErrorCode(tt.err); got != tt.want {
				t.Errorf("apiErrorCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTelebotProviderRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := botAPI(t, http.StatusBadGateway, `bad gateway`, &hits, nil)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	if err := p.Send(context.Background(), 42, "hi"); err == nil {
		t.Fatal("Send() error = nil, want failure")
	}
	if hits.Load() != int32(p.attempts) {
		t.Errorf("requests = %d, want %d", hits.Load(), p.attempts)
	}
}
