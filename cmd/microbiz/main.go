package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"microbiz/internal/backend"
	"microbiz/internal/cli"
	apphttp "microbiz/internal/http"
	applog "microbiz/internal/log"
	"microbiz/internal/middleware/ratelimit"
	"microbiz/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		startCancel()
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	snapshotCache, releaseCache, err := cli.NewSnapshotCache(startCtx, cfg, logger.WithComponent(applog.ComponentCache))
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize snapshot cache", "error", err, "cache_backend", cfg.CacheBackend)
		store.Close()
		os.Exit(1)
	}

	txs := services.NewTransactionService(store.Backend)
	snapshots := services.NewSnapshotService(txs, snapshotCache)

	srv := apphttp.NewServer(":"+cfg.Port, txs, snapshots, apphttp.Options{
		Logger:    logger,
		RateLimit: ratelimit.DefaultConfig(),
		Ready:     store.Ping,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		releaseCache()
		if err := store.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting microbiz server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"cache_backend", cfg.CacheBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
