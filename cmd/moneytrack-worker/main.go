package main

import (
	"context"
	"errors"
	"os"
	"time"

	"moneytrack/internal/amqp"
	"moneytrack/internal/buildinfo"
	"moneytrack/internal/cache"
	"moneytrack/internal/cli"
	applog "moneytrack/internal/log"
	"moneytrack/internal/services"
	gsheet "moneytrack/internal/sheets/google"
	"moneytrack/internal/storage"
	"moneytrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(applog.New(applog.DefaultConfig()))
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentWorker)

	logger.Info("Starting moneytrack-worker", "version", buildinfo.Version)

	if !cfg.MirrorEnabled() {
		logger.Error("Google Sheets mirror is not configured", "hint", "set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	// The worker reads the sync state straight from SQLite
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	sheetsClient, err := gsheet.New(startCtx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		startCancel()
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		_ = repo.Close()
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(startCtx); err != nil {
		// Not fatal: the sweep retries every pending row anyway
		logger.Warn("Failed to write sheet header", "error", err)
	}
	startCancel()
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	cacheManager := cache.NewManager()
	cacheManager.Register(sheetsClient.RowCache())
	cacheManager.StartCleanup(5 * time.Minute)

	processor := services.NewSyncProcessor(repo, sheetsClient, services.SyncProcessorConfig{
		Schedule:   cfg.SyncSchedule,
		BatchSize:  cfg.SyncBatchSize,
		MaxRetries: cfg.SyncMaxRetries,
	})

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			_ = repo.Close()
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - mirroring relies on the scheduled sweep only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop sync processor", "error", err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close SQLite repository", "error", err)
		}
	})

	// The first sweep runs immediately and picks up rows missed while offline
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncMaxRetries)
		go func() {
			err := amqpClient.ConsumeTransactionSync(ctx, syncWorker.HandleMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
		logger.Info("Consuming transaction sync messages",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
