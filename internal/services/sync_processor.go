package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"microbiz/internal/core"
	"microbiz/internal/sheets"
	"microbiz/internal/storage"
)

// SyncProcessorConfig controls the fallback resync of the Sheets mirror.
type SyncProcessorConfig struct {
	PollInterval time.Duration // default 5m
	BatchSize    int           // rows per cycle, default 50
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{PollInterval: 5 * time.Minute, BatchSize: 50}
}

// PendingSource is the local database side of a resync.
type PendingSource interface {
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncProcessor mirrors rows whose change events never reached the worker.
// The event consumer handles the normal case.
type SyncProcessor struct {
	source PendingSource
	mirror sheets.TransactionUpserter
	config SyncProcessorConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncProcessor(source PendingSource, mirror sheets.TransactionUpserter, config SyncProcessorConfig) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	return &SyncProcessor{source: source, mirror: mirror, config: config}
}

// Start polls every PollInterval until Stop is called or ctx ends. The first
// batch runs after one interval; call ProcessBatch for an immediate pass.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("sync processor is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.poll(loopCtx, p.done)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop cancels the loop and waits for an in-flight batch, at most until ctx ends.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	slog.InfoContext(ctx, "Sync processor stopped")
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *SyncProcessor) poll(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch mirrors up to BatchSize pending rows and returns how many made
// it. Rows that fail are flagged so the next pass retries them.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) int {
	pending, err := p.source.GetPendingSync(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending rows", "error", err)
		return 0
	}
	if len(pending) > 0 {
		slog.DebugContext(ctx, "Processing sync batch", "count", len(pending))
	}

	synced := 0
	for _, row := range pending {
		if ctx.Err() != nil {
			break
		}
		err := p.mirrorRow(ctx, row)
		if err == nil {
			synced++
			continue
		}
		slog.WarnContext(ctx, "Sync processing failed", "id", row.ID, "version", row.Version, "error", err)
		if markErr := p.source.MarkSyncError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", markErr)
		}
	}
	return synced
}

// mirrorRow copies one row to the sheet. A row deleted since it was listed
// counts as done; its delete event clears the mirror.
func (p *SyncProcessor) mirrorRow(ctx context.Context, row storage.PendingSync) error {
	t, err := p.source.GetTransaction(ctx, row.ID)
	switch {
	case errors.Is(err, sheets.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("get transaction %s: %w", row.ID, err)
	}
	if err := p.mirror.UpsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("upsert to sheets: %w", err)
	}
	if err := p.source.MarkSynced(ctx, row.ID, row.Version); err != nil {
		slog.WarnContext(ctx, "Failed to mark transaction as synced", "id", row.ID, "error", err)
	}
	slog.InfoContext(ctx, "Synced transaction to Google Sheets", "id", row.ID, "version", row.Version)
	return nil
}
