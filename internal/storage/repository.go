// Package storage is the SQLite adapter for the account-book ledger ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.TransactionWriter.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:          tx.UserID,
		EntryDate:       tx.Date.Format(dateLayout),
		Description:     tx.Description,
		AmountCents:     tx.Amount.Cents,
		TransactionType: tx.Type.String(),
		Category:        tx.Category,
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"transaction_type", row.TransactionType,
		"amount_cents", row.AmountCents)

	return strconv.FormatInt(row.ID, 10), nil
}

// ListTransactions implements ledger.TransactionLister.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByMonth(ctx, userID, monthPrefix(year, month))
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// DeleteTransaction implements ledger.TransactionDeleter as a soft delete so
// the sync worker can still mirror the removal downstream.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	affected, err := r.queries.SoftDeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ReadMonthOverview implements ledger.OverviewReader.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}
	prefix := monthPrefix(year, month)

	incomeTotal, err := r.queries.GetMonthTypeTotal(ctx, userID, prefix, core.Income().String())
	if err != nil {
		return overview, fmt.Errorf("get income total: %w", err)
	}
	overview.IncomeTotal = core.Money{Cents: incomeTotal}

	expenseTotal, err := r.queries.GetMonthTypeTotal(ctx, userID, prefix, core.Expense().String())
	if err != nil {
		return overview, fmt.Errorf("get expense total: %w", err)
	}
	overview.ExpenseTotal = core.Money{Cents: expenseTotal}

	sums, err := r.queries.GetExpenseCategorySums(ctx, userID, prefix)
	if err != nil {
		return overview, fmt.Errorf("get category sums: %w", err)
	}
	for _, cs := range sums {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   cs.Category,
			Amount: core.Money{Cents: cs.TotalCents},
		})
	}

	return overview, nil
}

// CreateUser implements ledger.UserStore.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	row, err := r.queries.CreateUser(ctx, strings.TrimSpace(u.Email), u.PasswordHash, u.DisplayName)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, core.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return row.ID, nil
}

// GetUserByEmail implements ledger.UserStore.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return rowToUser(row), nil
}

// GetUserByID implements ledger.UserStore.
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return rowToUser(row), nil
}

// BlacklistToken implements ledger.TokenBlacklist.
func (r *SQLiteRepository) BlacklistToken(ctx context.Context, t core.BlacklistedToken) error {
	if err := r.queries.InsertBlacklistToken(ctx, t.JTI, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert blacklist token: %w", err)
	}
	return nil
}

// IsTokenBlacklisted implements ledger.TokenBlacklist.
func (r *SQLiteRepository) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.queries.CountBlacklistedJTI(ctx, jti, time.Now())
	if err != nil {
		return false, fmt.Errorf("count blacklisted jti: %w", err)
	}
	return n > 0, nil
}

// PurgeExpiredTokens implements ledger.TokenBlacklist.
func (r *SQLiteRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	purged, err := r.queries.DeleteExpiredTokens(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	if purged > 0 {
		slog.InfoContext(ctx, "Purged expired blacklist tokens", "count", purged)
	}
	return purged, nil
}

// GetTransaction returns a single live transaction by ID, for the sync worker.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return rowToTransaction(row)
}

// PendingSyncTransaction is the minimal data needed for sync queue messages.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// GetPendingSyncTransactions returns transactions not yet mirrored downstream.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	out := make([]PendingSyncTransaction, len(rows))
	for i, row := range rows {
		out[i] = PendingSyncTransaction{ID: row.ID, Version: row.Version, CreatedAt: row.CreatedAt}
	}
	return out, nil
}

// MarkSynced marks a transaction as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

// MarkSyncError marks a transaction whose mirroring failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func monthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func rowToTransaction(row TransactionRow) (core.Transaction, error) {
	entryDate, err := time.Parse(dateLayout, row.EntryDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse entry date %q: %w", row.EntryDate, err)
	}
	// Persisted tags funnel through the same admission point as user input.
	txType, err := core.ParseTransactionType(row.TransactionType)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Date:        core.Date{Time: entryDate},
		Type:        txType,
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
	}, nil
}

func rowToUser(row UserRow) core.User {
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		DisplayName:  row.DisplayName,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
