package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/export"
	"expenses/internal/ledger"
	"expenses/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Logs go to stderr so they never interleave with the prompt loop.
	logger := cli.SetupInteractiveLogger().With("session_id", cli.SessionID())
	slog.SetDefault(logger)

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backend := cli.OpenStore(ctx, logger, cfg)
	defer func() {
		if backend.Cleanup != nil {
			if err := backend.Cleanup(); err != nil {
				logger.Error("Failed to close storage backend", "error", err)
			}
		}
	}()

	// Event publishing is optional: without a broker the tracker behaves
	// the same, the activity stream just stays empty.
	var notifier ledger.Notifier
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
		} else {
			amqpClient = client
			notifier = client
			defer amqpClient.Close()
		}
	}

	lg := ledger.New(backend.Store, notifier)
	exporter := export.NewCSV(cfg.ExportDir)

	// Ctrl-C arrives while the prompt loop is blocked on stdin, so the
	// handler saves the session's records and terminates the process.
	cli.FlushOnInterrupt(logger, func() {
		fmt.Println("\n\nSaving expenses before exit...")
		if err := lg.Flush(context.Background()); err != nil {
			fmt.Printf("Error saving expenses: %v\n", err)
		} else {
			fmt.Println("Your expenses have been saved. Goodbye!")
		}
		if amqpClient != nil {
			amqpClient.Close()
		}
		if backend.Cleanup != nil {
			backend.Cleanup()
		}
	})

	s := session.New(lg, exporter, os.Stdin, os.Stdout, session.Options{
		WindowDays:  cfg.RecentWindowDays,
		DetailLimit: cfg.CategoryRecentLimit,
	})
	if err := s.Run(ctx); err != nil {
		logger.Error("Session ended abnormally", "error", err)
		os.Exit(1)
	}
}
