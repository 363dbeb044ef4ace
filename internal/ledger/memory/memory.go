// Package memory is an in-memory ledger backend used for development and
// tests. It mirrors the SQLite repository's semantics without persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
)

type Store struct {
	mu sync.Mutex

	nextTxID   int64
	nextUserID int64

	transactions map[int64]core.Transaction
	users        map[int64]core.User
	blacklist    map[string]core.BlacklistedToken
}

func New() *Store {
	return &Store{
		transactions: make(map[int64]core.Transaction),
		users:        make(map[int64]core.User),
		blacklist:    make(map[string]core.BlacklistedToken),
	}
}

// Append stores the transaction and returns a synthetic reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxID++
	tx.ID = s.nextTxID
	s.transactions[tx.ID] = tx
	return fmt.Sprintf("%d", tx.ID), nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.Date.Year() == year && tx.Date.Month() == month {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetTransaction looks up a transaction regardless of owner. Ownership is
// the caller's concern.
func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ReadMonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error) {
	txs, err := s.ListTransactions(ctx, userID, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	ov := core.MonthOverview{Year: year, Month: month}
	byCategory := make(map[string]int64)
	var categories []string
	for _, tx := range txs {
		if tx.Type.IsIncome() {
			ov.IncomeTotal.Cents += tx.Amount.Cents
			continue
		}
		ov.ExpenseTotal.Cents += tx.Amount.Cents
		if _, seen := byCategory[tx.Category]; !seen {
			categories = append(categories, tx.Category)
		}
		byCategory[tx.Category] += tx.Amount.Cents
	}
	sort.Strings(categories)
	for _, name := range categories {
		ov.ByCategory = append(ov.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: byCategory[name]},
		})
	}
	return ov, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == email {
			return 0, core.ErrDuplicateEmail
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) BlacklistToken(_ context.Context, t core.BlacklistedToken) error {
	if t.JTI == "" {
		return core.NewValidationError("jti", fmt.Errorf("empty token id"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[t.JTI] = t
	return nil
}

func (s *Store) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.blacklist[jti]
	if !ok {
		return false, nil
	}
	// Expired entries no longer matter; the token itself is past its exp.
	if time.Now().After(t.ExpiresAt) {
		delete(s.blacklist, jti)
		return false, nil
	}
	return true, nil
}

func (s *Store) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for jti, t := range s.blacklist {
		if now.After(t.ExpiresAt) {
			delete(s.blacklist, jti)
			purged++
		}
	}
	return purged, nil
}
