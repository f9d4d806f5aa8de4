package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"advisor-chat/internal/chat"
	"advisor-chat/internal/config"
	"advisor-chat/internal/relayclient"
	"advisor-chat/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout belongs to the terminal UI
	logFile, err := os.OpenFile(cfg.ChatLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, nil))
	slog.SetDefault(logger)

	client, err := relayclient.New(cfg.RelayURL)
	if err != nil {
		return err
	}

	view := ui.New(logger)
	ctrl, err := chat.NewController(client,
		chat.WithLogger(logger),
		chat.WithOnChange(view.Update),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("chat client started", "relay", cfg.RelayURL)
	if err := view.Run(ctx, ctrl); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	stop()
	ctrl.Wait()
	return nil
}
