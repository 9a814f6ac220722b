// Package main implements a bot that polls the homework review API and
// forwards status changes to a Telegram chat.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"homework-notifier/config"
	"homework-notifier/poll"
	"homework-notifier/practicum"
	"homework-notifier/server"
	"homework-notifier/telegram"
)

func main() {
	// Initialize structured logger; replaced once the config names a sink
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	out, closeLog, err := logOutput(cfg.LogFile)
	if err != nil {
		logger.Error("Failed to open log file", "path", cfg.LogFile, "error", err)
		os.Exit(1)
	}
	defer closeLog()

	logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var provider telegram.Provider
	if cfg.MockNotifier {
		logger.Info("Mock notification mode enabled (MOCK_NOTIFY)")
		provider = telegram.NewMockProvider(logger)
	} else {
		tp, err := telegram.NewTelebotProvider(cfg.BotToken, cfg.BotAPIURL, httpClient, logger)
		if err != nil {
			logger.Error("Failed to initialize bot", "error", err)
			os.Exit(1)
		}
		provider = tp
	}

	sender := telegram.New(provider, cfg.ChatID, logger)
	client := practicum.New(httpClient, cfg.Endpoint, cfg.StatusToken, logger)
	monitor := poll.New(client, sender, cfg.Interval, logger)

	if cfg.Port != "" {
		srv := server.New(monitor, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Port); err != nil {
				logger.Error("HTTP server failed", "error", err)
			}
		}()
	}

	logger.Info("Homework notifier starting",
		"endpoint", cfg.Endpoint,
		"chat_id", cfg.ChatID,
		"interval", cfg.Interval.String())

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Poll loop exited", "error", err)
		os.Exit(1)
	}
	logger.Info("Homework notifier stopped")
}

// logOutput opens the log sink: path in append mode, or stdout when empty.
func logOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close log file", "error", err)
		}
	}, nil
}
