package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"microbiz/internal/amqp"
	"microbiz/internal/core"
	"microbiz/internal/sheets"
	"microbiz/internal/statement"
)

// ReminderPublisher delivers overdue reminders.
type ReminderPublisher interface {
	PublishOverdueReminder(ctx context.Context, r *amqp.OverdueReminder) error
}

// OverdueProcessor scans the transaction set for overdue receivables and
// publishes reminders according to a ReminderPolicy.
type OverdueProcessor struct {
	lister    sheets.TransactionLister
	publisher ReminderPublisher
	policy    ReminderPolicy

	mu           sync.Mutex
	lastReminded map[string]time.Time
}

func NewOverdueProcessor(lister sheets.TransactionLister, publisher ReminderPublisher, policy ReminderPolicy) *OverdueProcessor {
	if policy == nil {
		policy = DailyReminder{}
	}
	return &OverdueProcessor{
		lister:       lister,
		publisher:    publisher,
		policy:       policy,
		lastReminded: make(map[string]time.Time),
	}
}

// ProcessOverdue publishes one reminder per overdue invoice the policy
// selects and returns how many were sent.
func (p *OverdueProcessor) ProcessOverdue(ctx context.Context, now time.Time) (int, error) {
	if p.lister == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	txs, err := p.lister.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	// Capital does not affect overdue detection.
	snap := statement.Aggregate(txs, core.PeriodOf(now), core.Money{}, now)

	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]bool, len(snap.OverdueInvoices))
	sent := 0
	for _, inv := range snap.OverdueInvoices {
		current[inv.ID] = true
		if !p.policy.ShouldRemind(p.lastReminded[inv.ID], now, inv.DelayDays) {
			continue
		}

		err := p.publisher.PublishOverdueReminder(ctx, &amqp.OverdueReminder{
			TransactionID: inv.ID,
			CustomerName:  inv.CustomerName,
			Amount:        inv.Amount,
			Date:          inv.Date.String(),
			DueDate:       inv.DueDate,
			DelayDays:     inv.DelayDays,
			Timestamp:     now,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish overdue reminder",
				"transaction_id", inv.ID,
				"error", err)
			continue
		}
		p.lastReminded[inv.ID] = now
		sent++
	}

	// Forget invoices that were paid or deleted.
	for id := range p.lastReminded {
		if !current[id] {
			delete(p.lastReminded, id)
		}
	}

	slog.InfoContext(ctx, "Overdue scan complete",
		"overdue", len(snap.OverdueInvoices),
		"reminded", sent,
		"scan_time", now.Format(time.RFC3339))

	return sent, nil
}

// Run scans immediately and then every interval until ctx is done.
func (p *OverdueProcessor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.ProcessOverdue(ctx, time.Now()); err != nil {
			slog.ErrorContext(ctx, "Overdue scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
