// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/expenses and cmd/expenses-worker.
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expenses/internal/config"
	"expenses/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// SetupInteractiveLogger routes logs to stderr at warn level so they do
// not interleave with the prompt loop on stdout.
func SetupInteractiveLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SessionID creates a unique ID to correlate the log lines of one run.
func SessionID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("session_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the storage backend selected by the configuration.
// Returns the open result or exits the process on failure.
func OpenStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) *storage.Result {
	result, err := storage.Open(ctx, storage.Config{
		Type:         storage.BackendType(cfg.DataBackend),
		DataFile:     cfg.DataFile,
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to open storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// FlushOnInterrupt installs a signal handler that runs cleanup and exits.
// Interactive prompts block the main goroutine on stdin, so the handler
// has to terminate the process itself.
func FlushOnInterrupt(logger *slog.Logger, cleanup func()) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Warn("Shutdown signal received", "signal", sig.String())

		if cleanup != nil {
			cleanup()
		}

		os.Exit(130)
	}()
}
