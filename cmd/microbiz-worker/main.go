package main

import (
	"context"
	"errors"
	"os"
	"time"

	"microbiz/internal/amqp"
	"microbiz/internal/cli"
	applog "microbiz/internal/log"
	"microbiz/internal/services"
	gsheet "microbiz/internal/sheets/google"
	"microbiz/internal/worker"
)

// microbiz-worker mirrors the SQLite store into Google Sheets. It applies
// AMQP events as they arrive and periodically resyncs rows the events missed.
func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting microbiz-worker")

	if !cfg.HasSheetsMirror() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the sync worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	sheetsClient, err := gsheet.New(startCtx, gsheet.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		SheetName:         cfg.GoogleSheetName,
		SettingsSheetName: cfg.GoogleSettingsSheetName,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
	})
	if err == nil {
		err = sheetsClient.EnsureHeader(startCtx)
	}
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	processor := services.NewSyncProcessor(repo, sheetsClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})
	syncWorker := worker.NewSyncWorker(repo, sheetsClient)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled, relying on periodic resync only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Sync processor stop", "error", err)
		}
	})

	// Catch up on anything written while the worker was down.
	if n := processor.ProcessBatch(ctx); n > 0 {
		logger.Info("Startup sync complete", "synced", n)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed, periodic resync continues", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
