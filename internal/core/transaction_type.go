package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	incomeTag  = "INCOME"
	expenseTag = "EXPENSE"
)

// TransactionType is the direction of an account-book entry: income or
// expense. It is an immutable value; the zero value is invalid and cannot be
// produced by the constructors or the parser, so code holding a constructed
// TransactionType never observes a tag outside the closed set.
type TransactionType struct {
	value string
}

// Income returns the INCOME transaction type.
func Income() TransactionType { return TransactionType{value: incomeTag} }

// Expense returns the EXPENSE transaction type.
func Expense() TransactionType { return TransactionType{value: expenseTag} }

// ParseTransactionType converts untrusted text into a TransactionType. It is
// the single admission point for raw tags: matching is exact (case-sensitive,
// no trimming) and anything outside {"INCOME", "EXPENSE"} fails with a
// ValidationError. It never defaults to a valid tag.
func ParseTransactionType(text string) (TransactionType, error) {
	switch text {
	case incomeTag:
		return Income(), nil
	case expenseTag:
		return Expense(), nil
	default:
		return TransactionType{}, NewValidationError("transaction_type",
			fmt.Errorf("%w: %q", ErrInvalidTransactionType, text))
	}
}

// IsIncome reports whether the type is INCOME.
func (t TransactionType) IsIncome() bool { return t.value == incomeTag }

// IsExpense reports whether the type is EXPENSE.
func (t TransactionType) IsExpense() bool { return t.value == expenseTag }

// Equal reports value equality. The type is also directly comparable with ==.
func (t TransactionType) Equal(other TransactionType) bool {
	return t.value == other.value
}

// String returns the tag verbatim ("INCOME" or "EXPENSE"), inverting
// ParseTransactionType for every valid tag.
func (t TransactionType) String() string { return t.value }

// Validate rejects the zero value, which can only occur through an
// uninitialized struct field.
func (t TransactionType) Validate() error {
	if t.value != incomeTag && t.value != expenseTag {
		return NewValidationError("transaction_type", ErrInvalidTransactionType)
	}
	return nil
}

// MarshalJSON encodes the tag as a JSON string.
func (t TransactionType) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t.value)
}

// UnmarshalJSON decodes a JSON string through ParseTransactionType.
func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("transaction_type",
			fmt.Errorf("%w: %v", ErrInvalidTransactionType, err))
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner so persisted columns round-trip through the
// same validation as user input.
func (t *TransactionType) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return NewValidationError("transaction_type",
			fmt.Errorf("%w: unsupported column type %T", ErrInvalidTransactionType, src))
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer.
func (t TransactionType) Value() (driver.Value, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t.value, nil
}
