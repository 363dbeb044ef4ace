// Package export defines the outbound ports the sync worker mirrors
// transactions through.
package export

import (
	"context"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
)

type (
	// RowAppender mirrors a transaction to the downstream sheet and
	// returns a reference to the written row.
	RowAppender interface {
		AppendRow(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// RowRemover removes the mirrored row for a deleted transaction.
	RowRemover interface {
		RemoveRow(ctx context.Context, transactionID int64) error
	}
)

// Exporter is the full downstream surface the worker needs.
type Exporter interface {
	RowAppender
	RowRemover
}
