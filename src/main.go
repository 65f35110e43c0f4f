// main.go - Entry point for the CyberSense terminal client
// Loads the configuration, restores a stored session when one is still
// valid, and launches the Bubble Tea application.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensechat/src/api"
	"sensechat/src/app"
	"sensechat/src/config"
	"sensechat/src/services/auth"
	"sensechat/src/services/storage/repositories"
	"sensechat/src/services/uploader"

	tea "github.com/charmbracelet/bubbletea"
)

// =====================================================================================
// 🚀 Application Entry Point
// =====================================================================================

func main() {
	cfg := config.Load()

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging setup failed:", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("Starting CyberSense client", "api_url", cfg.APIBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	tokens := repositories.NewFileTokenRepository(cfg.ConfigDir)
	authService := auth.NewService(client, tokens, logger)
	tracker := uploader.NewTracker(logger)
	poller := uploader.NewPoller(client, tracker, uploader.Options{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		ReadyGrace:  cfg.ReadyGrace,
		Policy:      cfg.UploadPolicy(),
	}, logger)

	// Pending uploads belong to the session that started them.
	authService.OnLogout(tracker.Reset)

	if cfg.Healthcheck {
		healthCtx, healthCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Health(healthCtx); err != nil {
			logger.Warn("Backend healthcheck failed, starting anyway", "error", err)
		}
		healthCancel()
	}

	// Try to restore the stored session before the UI comes up, so a
	// valid token skips the login screen.
	verifyCtx, verifyCancel := context.WithTimeout(ctx, 5*time.Second)
	restored := authService.VerifyToken(verifyCtx)
	verifyCancel()
	logger.Info("Session restore attempted", "restored", restored)

	program := tea.NewProgram(
		app.New(ctx, client, authService, poller, tracker, logger),
		tea.WithAltScreen(),
	)

	setupGracefulShutdown(program, logger)

	if _, err := program.Run(); err != nil {
		logger.Error("Application failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Application completed successfully")
}

// =====================================================================================
// 📋 Logging
// =====================================================================================

// setupLogging builds the logger. Output goes to the configured file;
// without one it is discarded, because stderr belongs to the TUI.
func setupLogging(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: cfg.LogLevel})
		return slog.New(handler), func() {}, nil
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: cfg.LogLevel})
	return slog.New(handler), func() { file.Close() }, nil
}

// =====================================================================================
// 🛡️ Graceful Shutdown
// =====================================================================================

// setupGracefulShutdown sets up signal handling for graceful shutdown
func setupGracefulShutdown(program *tea.Program, logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Received shutdown signal, cleaning up...")
		program.Quit()
	}()
}
