// Package ledger declares the outbound ports of the account-book domain.
// The SQLite repository and the in-memory store are the two adapters.
package ledger

import (
	"context"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
)

type (
	// TransactionWriter persists a new transaction and returns its reference.
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (ref string, err error)
	}

	// TransactionLister returns a user's transactions for a given month.
	TransactionLister interface {
		ListTransactions(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error)
	}

	// TransactionGetter looks up a single transaction by ID.
	TransactionGetter interface {
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	// TransactionDeleter removes a transaction owned by the given user.
	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, userID, id int64) error
	}

	// OverviewReader aggregates a user's month into totals per direction and
	// per-category expense sums.
	OverviewReader interface {
		ReadMonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error)
	}

	// UserStore persists registered users.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (int64, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id int64) (core.User, error)
	}

	// TokenBlacklist records revoked token identifiers until they expire.
	TokenBlacklist interface {
		BlacklistToken(ctx context.Context, t core.BlacklistedToken) error
		IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
		PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
	}
)

// Backend is the full set of ports the HTTP server needs.
type Backend interface {
	TransactionWriter
	TransactionLister
	TransactionGetter
	TransactionDeleter
	OverviewReader
	UserStore
	TokenBlacklist
}
