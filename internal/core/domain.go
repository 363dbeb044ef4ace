package core

import (
	"strings"
	"time"
)

const maxDescriptionLength = 200

type (
	// Date is a day-precision calendar date in UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in cents. Calculations stay in integer cents to
	// avoid floating-point drift.
	Money struct {
		Cents int64
	}

	// Transaction is a single account-book entry owned by a user.
	Transaction struct {
		ID          int64
		UserID      int64
		Date        Date
		Type        TransactionType
		Description string
		Amount      Money
		Category    string
	}

	// User is a registered account-book owner.
	User struct {
		ID           int64
		Email        string
		PasswordHash string
		DisplayName  string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// BlacklistedToken is a revoked auth token, identified by its jti claim.
	// Rows become prunable once ExpiresAt has passed.
	BlacklistedToken struct {
		ID        int64
		JTI       string
		UserID    int64
		ExpiresAt time.Time
		CreatedAt time.Time
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return NewValidationError("date", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return NewValidationError("amount", ErrInvalidAmount)
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return NewValidationError("description", ErrEmptyDescription)
	}
	if len(t.Description) > maxDescriptionLength {
		return NewValidationError("description", ErrDescriptionTooLong)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return NewValidationError("category", ErrEmptyCategory)
	}
	return nil
}

func (u User) Validate() error {
	email := strings.TrimSpace(u.Email)
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return NewValidationError("email", ErrInvalidEmail)
	}
	if u.PasswordHash == "" {
		return NewValidationError("password", ErrEmptyPassword)
	}
	return nil
}
