package storage

import (
	"context"
	"database/sql"
	"time"
)

// Queries is the hand-written query layer over the account-book schema.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const dateLayout = "2006-01-02"

type (
	// UserRow mirrors the users table.
	UserRow struct {
		ID           int64
		Email        string
		PasswordHash string
		DisplayName  string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// TransactionRow mirrors the transactions table.
	TransactionRow struct {
		ID              int64
		UserID          int64
		EntryDate       string
		Description     string
		AmountCents     int64
		TransactionType string
		Category        string
		SyncStatus      string
		Version         int64
		CreatedAt       time.Time
	}

	CreateTransactionParams struct {
		UserID          int64
		EntryDate       string
		Description     string
		AmountCents     int64
		TransactionType string
		Category        string
	}

	CategorySum struct {
		Category   string
		TotalCents int64
	}

	PendingSyncRow struct {
		ID        int64
		Version   int64
		CreatedAt time.Time
	}
)

const createUser = `
INSERT INTO users (email, password_hash, display_name)
VALUES (?, ?, ?)
RETURNING id, email, password_hash, display_name, created_at, updated_at`

func (q *Queries) CreateUser(ctx context.Context, email, passwordHash, displayName string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, createUser, email, passwordHash, displayName).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, display_name, created_at, updated_at
FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, email, password_hash, display_name, created_at, updated_at
FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByID, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const insertBlacklistToken = `
INSERT INTO token_blacklist (jti, user_id, expires_at)
VALUES (?, ?, ?)
ON CONFLICT (jti) DO NOTHING`

func (q *Queries) InsertBlacklistToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	_, err := q.db.ExecContext(ctx, insertBlacklistToken, jti, userID, expiresAt.UTC())
	return err
}

const countBlacklistedJTI = `
SELECT COUNT(1) FROM token_blacklist WHERE jti = ? AND expires_at > ?`

func (q *Queries) CountBlacklistedJTI(ctx context.Context, jti string, now time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBlacklistedJTI, jti, now.UTC()).Scan(&n)
	return n, err
}

const deleteExpiredTokens = `
DELETE FROM token_blacklist WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredTokens, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createTransaction = `
INSERT INTO transactions (user_id, entry_date, description, amount_cents, transaction_type, category)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, entry_date, description, amount_cents, transaction_type, category, sync_status, version, created_at`

func (q *Queries) CreateTransaction(ctx context.Context, p CreateTransactionParams) (TransactionRow, error) {
	var row TransactionRow
	err := q.db.QueryRowContext(ctx, createTransaction,
		p.UserID, p.EntryDate, p.Description, p.AmountCents, p.TransactionType, p.Category).
		Scan(&row.ID, &row.UserID, &row.EntryDate, &row.Description, &row.AmountCents,
			&row.TransactionType, &row.Category, &row.SyncStatus, &row.Version, &row.CreatedAt)
	return row, err
}

const getTransaction = `
SELECT id, user_id, entry_date, description, amount_cents, transaction_type, category, sync_status, version, created_at
FROM transactions WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	var row TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).
		Scan(&row.ID, &row.UserID, &row.EntryDate, &row.Description, &row.AmountCents,
			&row.TransactionType, &row.Category, &row.SyncStatus, &row.Version, &row.CreatedAt)
	return row, err
}

const softDeleteTransaction = `
UPDATE transactions
SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP, version = version + 1
WHERE id = ? AND user_id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteTransaction(ctx context.Context, id, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, softDeleteTransaction, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTransactionsByMonth = `
SELECT id, user_id, entry_date, description, amount_cents, transaction_type, category, sync_status, version, created_at
FROM transactions
WHERE user_id = ? AND substr(entry_date, 1, 7) = ? AND deleted_at IS NULL
ORDER BY entry_date, id`

func (q *Queries) ListTransactionsByMonth(ctx context.Context, userID int64, monthPrefix string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByMonth, userID, monthPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		var row TransactionRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.EntryDate, &row.Description, &row.AmountCents,
			&row.TransactionType, &row.Category, &row.SyncStatus, &row.Version, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const getMonthTypeTotal = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM transactions
WHERE user_id = ? AND substr(entry_date, 1, 7) = ? AND transaction_type = ? AND deleted_at IS NULL`

func (q *Queries) GetMonthTypeTotal(ctx context.Context, userID int64, monthPrefix, transactionType string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, getMonthTypeTotal, userID, monthPrefix, transactionType).Scan(&total)
	return total, err
}

const getExpenseCategorySums = `
SELECT category, SUM(amount_cents) AS total_cents
FROM transactions
WHERE user_id = ? AND substr(entry_date, 1, 7) = ? AND transaction_type = 'EXPENSE' AND deleted_at IS NULL
GROUP BY category
ORDER BY category`

func (q *Queries) GetExpenseCategorySums(ctx context.Context, userID int64, monthPrefix string) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, getExpenseCategorySums, userID, monthPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategorySum
	for rows.Next() {
		var cs CategorySum
		if err := rows.Scan(&cs.Category, &cs.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

const getPendingSyncTransactions = `
SELECT id, version, created_at
FROM transactions
WHERE sync_status = 'pending' AND deleted_at IS NULL
ORDER BY created_at
LIMIT ?`

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]PendingSyncRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingSyncRow
	for rows.Next() {
		var row PendingSyncRow
		if err := rows.Scan(&row.ID, &row.Version, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const markTransactionSynced = `
UPDATE transactions
SET sync_status = 'synced', updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions
SET sync_status = 'error', updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}
