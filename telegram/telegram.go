// Package telegram delivers notification messages to a single chat.
package telegram

import (
	"context"
	"log/slog"

	"homework-notifier/pkg/notifier"
)

// Provider defines the interface for message delivery implementations.
type Provider interface {
	// Send delivers text to the chat identified by chatID.
	Send(ctx context.Context, chatID int64, text string) error
}

// Sender delivers messages to one fixed chat using a pluggable provider.
type Sender struct {
	provider Provider
	logger   *slog.Logger
	chatID   int64
}

// New creates a new sender bound to chatID.
func New(provider Provider, chatID int64, logger *slog.Logger) *Sender {
	return &Sender{
		provider: provider,
		logger:   logger,
		chatID:   chatID,
	}
}

// Notify sends text to the configured chat and reports whether it was delivered.
// Delivery failures are logged and never returned: a broken sink must not
// stop the poll loop.
func (s *Sender) Notify(ctx context.Context, text string) bool {
	if err := s.provider.Send(ctx, s.chatID, text); err != nil {
		notifyErr := &notifier.NotifyError{ChatID: s.chatID, Err: err}
		s.logger.Error("Message delivery failed",
			"chat_id", s.chatID,
			"kind", notifier.KindNotify,
			"error", notifyErr)
		return false
	}

	s.logger.Info("Message sent", "chat_id", s.chatID, "length", len(text))
	return true
}
