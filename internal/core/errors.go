package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyDescription       = errors.New("empty description")
	ErrDescriptionTooLong     = errors.New("description too long")
	ErrEmptyCategory          = errors.New("empty category")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrEmptyPassword          = errors.New("empty password")

	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// ValidationError marks a deterministic rejection of malformed input. It is
// raised at the admission points of the domain (parsers and Validate methods)
// and never recovered internally; callers map it to a 4xx response.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err as a field-level validation failure.
func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
