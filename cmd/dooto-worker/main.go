package main

import (
	"context"
	"errors"
	"os"
	"time"

	"dooto/internal/amqp"
	"dooto/internal/cache"
	"dooto/internal/cli"
	applog "dooto/internal/log"
	"dooto/internal/sheets"
	gsheet "dooto/internal/sheets/google"
	memledger "dooto/internal/sheets/memory"
	"dooto/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 10 * time.Minute

	seenEventsSize = 10000
	seenEventsTTL  = 24 * time.Hour
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting dooto-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ledger worker",
			"error_type", applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	var ledger sheets.LedgerWriter
	if cfg.LedgerEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client",
				applog.FieldError, err,
				"error_type", applog.ErrorTypeConfiguration)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		ledger = memledger.New()
		logger.Info("Google Sheets disabled, mirroring into memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			applog.FieldError, err,
			"error_type", applog.ErrorTypeNetwork)
		os.Exit(1)
	}

	seen := cache.NewLRUCache[string](seenEventsSize, seenEventsTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(seen)
	cacheManager.StartCleanup(cleanupInterval)

	ledgerWorker := worker.NewLedgerWorker(ledger, seen, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		cacheManager.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", applog.FieldError, err)
		}
	})

	go func() {
		if err := ledgerWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
