// Package config builds the notifier configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"homework-notifier/practicum"
)

// Config holds everything the notifier needs at startup.
type Config struct {
	StatusToken string
	BotToken    string
	Endpoint    string
	BotAPIURL   string // empty selects the public Telegram API
	LogFile     string // empty logs to stdout
	Port        string // empty disables the status server

	ChatID       int64
	Interval     time.Duration
	HTTPTimeout  time.Duration
	LogLevel     slog.Level
	MockNotifier bool
}

const (
	defaultInterval    = 300 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// Load reads the configuration using getenv, which is usually os.Getenv.
// Missing required values are reported together.
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		StatusToken: lookup(getenv, "STATUS_API_TOKEN", "PRACTICUM_TOKEN"),
		BotToken:    lookup(getenv, "BOT_TOKEN", "TELEGRAM_TOKEN"),
		Endpoint:    lookup(getenv, "STATUS_API_ENDPOINT"),
		BotAPIURL:   lookup(getenv, "BOT_API_URL"),
		LogFile:     lookup(getenv, "LOG_FILE"),
		Port:        lookup(getenv, "PORT"),
		Interval:    defaultInterval,
		HTTPTimeout: defaultHTTPTimeout,
		LogLevel:    slog.LevelInfo,
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = practicum.DefaultEndpoint
	}

	var errs []error

	if cfg.StatusToken == "" {
		errs = append(errs, errors.New("STATUS_API_TOKEN required"))
	}
	if cfg.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN required"))
	}

	if raw := lookup(getenv, "CHAT_ID", "TELEGRAM_CHAT_ID"); raw == "" {
		errs = append(errs, errors.New("CHAT_ID required"))
	} else if id, err := strconv.ParseInt(raw, 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("invalid CHAT_ID %q: must be an integer", raw))
	} else {
		cfg.ChatID = id
	}

	if raw := lookup(getenv, "RETRY_INTERVAL"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid RETRY_INTERVAL: %w", err))
		} else {
			cfg.Interval = d
		}
	}

	if raw := lookup(getenv, "HTTP_TIMEOUT"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err))
		} else {
			cfg.HTTPTimeout = d
		}
	}

	if raw := lookup(getenv, "LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", raw))
		}
	}

	if raw := lookup(getenv, "MOCK_NOTIFY"); raw != "" {
		mock, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid MOCK_NOTIFY %q", raw))
		}
		cfg.MockNotifier = mock
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lookup returns the first non-empty value among keys.
func lookup(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration accepts Go durations ("5m") or a bare number of seconds ("300").
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%q must be positive", raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q must be positive", raw)
	}
	return d, nil
}
