// Package cli provides the initialization shared by cmd/microbiz,
// cmd/microbiz-worker and cmd/overdue-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"microbiz/internal/cache"
	"microbiz/internal/config"
	applog "microbiz/internal/log"
	"microbiz/internal/statement"
	"microbiz/internal/storage"
)

const (
	snapshotCacheSize    = 128
	snapshotCachePrefix  = "microbiz:snapshot:"
	cacheCleanupInterval = time.Minute
)

// SetupLogger builds the process logger for component and sets it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logCfg := applog.DefaultConfig()
	logCfg.Component = component
	if cfg != nil {
		logCfg.Level = cfg.SlogLevel()
		logCfg.Format = cfg.LogFormat
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// NewSnapshotCache returns the statement snapshot cache selected by
// CACHE_BACKEND and a function that releases it.
func NewSnapshotCache(ctx context.Context, cfg *config.Config, logger *applog.Logger) (cache.Cache[statement.Snapshot], func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("Using Redis snapshot cache", "ttl", cfg.CacheTTL)
		return cache.NewRedisCache[statement.Snapshot](client, snapshotCachePrefix, cfg.CacheTTL), func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", "error", err)
			}
		}, nil
	default:
		lru := cache.NewLRUCache[statement.Snapshot](snapshotCacheSize, cfg.CacheTTL)
		manager := cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(cacheCleanupInterval)
		logger.Info("Using in-memory snapshot cache", "size", snapshotCacheSize, "ttl", cfg.CacheTTL)
		return lru, manager.Stop, nil
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT or SIGTERM, after cleanup has
// run or timeout has elapsed; done closes once that has happened.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
