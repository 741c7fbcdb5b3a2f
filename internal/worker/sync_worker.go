// Package worker applies transaction events from the broker to the Google
// Sheets mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"microbiz/internal/amqp"
	"microbiz/internal/services"
	"microbiz/internal/sheets"
)

// Mirror is the spreadsheet side of the sync.
type Mirror interface {
	sheets.TransactionUpserter
	sheets.TransactionDeleter
}

// SyncWorker handles synchronization of transactions from SQLite to Google Sheets
type SyncWorker struct {
	source services.PendingSource
	mirror Mirror
}

func NewSyncWorker(source services.PendingSource, mirror Mirror) *SyncWorker {
	return &SyncWorker{
		source: source,
		mirror: mirror,
	}
}

// HandleEvent processes a single transaction event from AMQP. Unknown kinds
// are reported as amqp.ErrPoison so the consumer drops them.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if ev == nil || ev.ID == "" {
		return fmt.Errorf("%w: event without transaction id", amqp.ErrPoison)
	}

	switch ev.Kind {
	case amqp.RoutingTransactionCreated, amqp.RoutingPaymentStatusChanged:
		return w.upsert(ctx, ev)
	case amqp.RoutingTransactionDeleted:
		return w.delete(ctx, ev)
	default:
		return fmt.Errorf("%w: unknown event kind %q", amqp.ErrPoison, ev.Kind)
	}
}

func (w *SyncWorker) upsert(ctx context.Context, ev *amqp.TransactionEvent) error {
	t, err := w.source.GetTransaction(ctx, ev.ID)
	if errors.Is(err, sheets.ErrNotFound) {
		// Deleted after the event was published; a delete event follows.
		slog.InfoContext(ctx, "Skipping sync of missing transaction", "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirror.UpsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("upsert to sheets: %w", err)
	}

	if err := w.source.MarkSynced(ctx, ev.ID, ev.Version); err != nil {
		slog.WarnContext(ctx, "Failed to mark transaction as synced", "id", ev.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction to Google Sheets",
		"id", ev.ID,
		"kind", ev.Kind,
		"version", ev.Version)
	return nil
}

func (w *SyncWorker) delete(ctx context.Context, ev *amqp.TransactionEvent) error {
	err := w.mirror.DeleteTransaction(ctx, ev.ID)
	if errors.Is(err, sheets.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction already absent from Google Sheets", "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete from sheets: %w", err)
	}

	slog.InfoContext(ctx, "Deleted transaction from Google Sheets", "id", ev.ID)
	return nil
}
