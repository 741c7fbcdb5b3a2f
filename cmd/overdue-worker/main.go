package main

import (
	"context"
	"errors"
	"os"
	"time"

	"microbiz/internal/amqp"
	"microbiz/internal/backend"
	"microbiz/internal/cli"
	applog "microbiz/internal/log"
	"microbiz/internal/services"
)

// overdue-worker scans receivables on a fixed interval and publishes a
// reminder for each overdue invoice the configured policy selects.
func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentOverdue)

	logger.Info("Starting overdue-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to publish overdue reminders")
		os.Exit(1)
	}

	policy, err := services.GetReminderPolicy(cfg.OverdueReminderPolicy)
	if err != nil {
		logger.Error("Invalid reminder policy", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendCfg)
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	// Reminders go to their own routing key; no transaction queue binding.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewOverdueProcessor(store.Backend, amqpClient, policy)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	logger.Info("Overdue processor configured",
		"interval", cfg.OverdueScanInterval,
		"policy", cfg.OverdueReminderPolicy,
		applog.FieldBackend, cfg.DataBackend)

	if err := processor.Run(ctx, cfg.OverdueScanInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Overdue processor stopped", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Overdue worker stopped")
}
