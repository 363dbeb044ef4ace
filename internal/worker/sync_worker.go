// Package worker runs the background half of the sync pipeline: mirroring
// saved transactions downstream and sweeping rows the queue missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/amqp"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/export"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/storage"
)

// SyncStore is the slice of the repository the worker needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker mirrors transactions from local storage to the export target.
type SyncWorker struct {
	store     SyncStore
	exporter  export.Exporter
	batchSize int
}

var _ amqp.Handler = (*SyncWorker)(nil)

func NewSyncWorker(store SyncStore, exporter export.Exporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage mirrors a single transaction identified by the message.
// A transaction deleted before the message arrived is treated as done.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID, "version", msg.Version)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before sync, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	return w.mirror(ctx, tx)
}

// HandleDeleteMessage removes the mirrored row of a deleted transaction.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, skipping mirror delete", "id", msg.ID)
		return nil
	}

	if err := w.exporter.RemoveRow(ctx, msg.ID); err != nil {
		return fmt.Errorf("remove mirrored row: %w", err)
	}
	return nil
}

// StartupSyncCheck sweeps rows still pending at startup. It recovers from
// messages lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// A larger batch than the steady-state sweep
	synced, failed, err := w.sweepPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed > 0 {
		slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	} else {
		slog.InfoContext(ctx, "No pending transactions found on startup")
	}
	return nil
}

// RunPeriodicSweep re-runs the pending sweep every interval until ctx ends.
func (w *SyncWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := w.sweepPending(ctx, w.batchSize); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) sweepPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.GetPendingSyncTransactions(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, row := range pending {
		tx, err := w.store.GetTransaction(ctx, row.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction",
				"id", row.ID, "error", err)
			if markErr := w.store.MarkSyncError(ctx, row.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", markErr)
			}
			failed++
			continue
		}

		if err := w.mirror(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction",
				"id", row.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	return synced, failed, nil
}

func (w *SyncWorker) mirror(ctx context.Context, tx core.Transaction) error {
	ref, err := w.exporter.AppendRow(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append row: %w", err)
	}

	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		// The mirror write itself succeeded, keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents)
	return nil
}

var _ SyncStore = (*storage.SQLiteRepository)(nil)
