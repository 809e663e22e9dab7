package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneytrack/internal/buildinfo"
	"moneytrack/internal/cli"
	apphttp "moneytrack/internal/http"
	applog "moneytrack/internal/log"
	"moneytrack/internal/stats"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(applog.New(applog.DefaultConfig()))
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentApp)

	result := cli.InitStore(context.Background(), logger, cfg)

	engine := stats.NewEngine(result.Store, stats.Config{
		Timeout:     cfg.StatsTimeout,
		Concurrency: cfg.StatsConcurrency,
	})

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSOrigin:         cfg.CORSOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxPageLimit:       cfg.MaxPageLimit,
		WriteTimeout:       cfg.StatsTimeout + 5*time.Second,
	}, result.Store, engine, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	})

	logger.Info("Starting moneytrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"version", buildinfo.Version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = result.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
