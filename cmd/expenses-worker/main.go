package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/cli"
	gsheet "expenses/internal/sheets/google"
	"expenses/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger()
	logger.Info("Starting expenses-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker is pure event plumbing: without a broker to consume from
	// and a sheet to mirror into there is nothing for it to do.
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Broker redeliveries are deduplicated by event id for the TTL window.
	seen := cache.NewLRUCache[struct{}](cfg.EventCacheSize, cfg.EventCacheTTL)
	mirror := worker.NewMirror(sheetsClient, seen)

	// Shutdown signals cancel the context; the errgroup unwinds both loops.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeExpenseEvents(gctx, func(event *amqp.ExpenseEvent) error {
			return mirror.HandleExpenseEvent(gctx, event)
		})
	})

	// Housekeeping: drop expired dedupe entries so the cache honors its
	// TTL instead of only evicting on overflow.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.EventCacheCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if removed := seen.CleanExpired(); removed > 0 {
					logger.Info("Cleaned expired event cache entries", "removed", removed)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
