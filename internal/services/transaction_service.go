// Package services orchestrates domain operations across storage, the sync
// queue and the auth token lifecycle.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/amqp"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/storage"
)

// TransactionStore is the slice of the repository the service needs.
type TransactionStore interface {
	Append(ctx context.Context, tx core.Transaction) (string, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
}

// SyncPublisher publishes sync pipeline messages. A nil publisher disables
// the pipeline without failing writes.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishTransactionDelete(ctx context.Context, msg *amqp.TransactionDeleteMessage) error
}

// TransactionService saves transactions locally first and mirrors them
// downstream asynchronously.
type TransactionService struct {
	store     TransactionStore
	publisher SyncPublisher
}

func NewTransactionService(store TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction saves a transaction locally and publishes a sync message.
// Publish failures are logged, not returned: the local save is the source of
// truth and the worker's startup sweep recovers missed messages.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	ref, err := s.store.Append(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse transaction ref", "ref", ref, "error", err)
		return ref, nil
	}

	if err := s.publishSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return ref, nil
}

// DeleteTransaction soft deletes locally and publishes a delete message
// carrying the row data the exporter needs to find the mirrored copy.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if tx.UserID != userID {
		return core.ErrNotFound
	}

	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	msg := &amqp.TransactionDeleteMessage{
		Kind:            amqp.KindTransactionDelete,
		ID:              id,
		EntryDate:       tx.Date.Format("2006-01-02"),
		Description:     tx.Description,
		AmountCents:     tx.Amount.Cents,
		TransactionType: tx.Type.String(),
		Category:        tx.Category,
	}
	if err := s.publishDelete(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

func (s *TransactionService) publishSync(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, version)
}

func (s *TransactionService) publishDelete(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishTransactionDelete(ctx, msg)
}

// Ensure the SQLite repository satisfies the store contract.
var _ TransactionStore = (*storage.SQLiteRepository)(nil)
