package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	tele "gopkg.in/telebot.v3"
)

// TelebotProvider sends messages via the Telegram Bot API.
type TelebotProvider struct {
	bot    *tele.Bot
	logger *slog.Logger

	attempts  uint
	delay     time.Duration
	maxDelay  time.Duration
	maxJitter time.Duration
}

// NewTelebotProvider creates a provider for the bot identified by token.
// An empty apiURL selects the public Telegram API.
func NewTelebotProvider(token, apiURL string, client *http.Client, logger *slog.Logger) (*TelebotProvider, error) {
	bot, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   token,
		Client:  client,
		Offline: true, // send-only: no getMe round trip, no update polling
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelebotProvider{
		bot:       bot,
		logger:    logger,
		attempts:  3,
		delay:     time.Second,
		maxDelay:  30 * time.Second,
		maxJitter: 5 * time.Second,
	}, nil
}

// Send sends a plain text message.
func (p *TelebotProvider) Send(ctx context.Context, chatID int64, text string) error {
	err := retry.Do(
		func() error {
			p.logger.Info("Bot API request starting",
				"method", "POST",
				"endpoint", "sendMessage",
				"chat_id", chatID)

			startTime := time.Now()
			_, err := p.bot.Send(tele.ChatID(chatID), text)
			duration := time.Since(startTime)

			if err != nil {
				p.logger.Warn("Bot API send failed",
					"chat_id", chatID,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}

			p.logger.Info("Bot API request completed",
				"endpoint", "sendMessage",
				"chat_id", chatID,
				"duration_ms", duration.Milliseconds(),
				"status", "success")

			return nil
		},
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.MaxDelay(p.maxDelay),
		retry.MaxJitter(p.maxJitter),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Info("Retrying message send after error", "attempt", n, "error", err)
		}),
		retry.RetryIf(func(err error) bool {
			// The chat or message was rejected; sending again will not help.
			return !isRejected(err)
		}),
	)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// unknownAPIError matches the "telegram: <description> (<code>)" errors
// telebot builds for descriptions it has no typed error for.
var unknownAPIError = regexp.MustCompile(`^telegram: .* \((\d{3})\)$`)

// isRejected reports whether the Bot API refused the request outright.
func isRejected(err error) bool {
	return isClientError(apiErrorCode(err))
}

func isClientError(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// apiErrorCode returns the Bot API error_code carried by err, or 0.
func apiErrorCode(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	for ; err != nil; err = errors.Unwrap(err) {
		m := unknownAPIError.FindStringSubmatch(err.Error())
		if m == nil {
			continue
		}
		code, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return code
		}
	}
	return 0
}
