package practicum

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"homework-notifier/pkg/notifier"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFetchSendsCursorAndToken(t *testing.T) {
	var gotAuth, gotFromDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFromDate = r.URL.Query().Get("from_date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":1000}`))
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/api/user_api/homework_statuses/", "secret", testLogger())
	payload, err := c.Fetch(context.Background(), 1700000000)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotAuth != "OAuth secret" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "OAuth secret")
	}
	if gotFromDate != "1700000000" {
		t.Errorf("from_date = %q, want %q", gotFromDate, "1700000000")
	}
	if _, ok := payload["homeworks"]; !ok {
		t.Error("payload missing homeworks key")
	}
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantStatus: 500},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"code":"not_authenticated"}`, wantStatus: 401},
		{name: "invalid json", status: http.StatusOK, body: "<html>", wantStatus: 200},
		{name: "json array", status: http.StatusOK, body: "[]", wantStatus: 200},
		{name: "json null", status: http.StatusOK, body: "null", wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.Client(), srv.URL, "token", testLogger())
			_, err := c.Fetch(context.Background(), 1)

			var fetchErr *notifier.FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("Fetch() error = %v, want *FetchError", err)
			}
			if fetchErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c := New(&http.Client{Timeout: time.Second}, endpoint, "token", testLogger())
	_, err := c.Fetch(context.Background(), 1)
	if !notifier.IsFetchError(err) {
		t.Fatalf("Fetch() error = %v, want *FetchError", err)
	}
}

func TestRequestURLKeepsExistingQuery(t *testing.T) {
	c := New(http.DefaultClient, "https://example.com/statuses/?lang=ru", "token", testLogger())
	got, err := c.requestURL(42)
	if err != nil {
		t.Fatalf("requestURL() error = %v", err)
	}
	want := "https://example.com/statuses/?from_date=42&lang=ru"
	if got != want {
		t.Errorf("requestURL() = %q, want %q", got, want)
	}
}
