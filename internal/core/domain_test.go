package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	if err := NewDate(2026, 1, 15).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, cents := range []int64{0, -100} {
		err := (Money{Cents: cents}).Validate()
		if err == nil {
			t.Fatalf("%d expected error", cents)
		}
		if !IsValidation(err) {
			t.Fatalf("%d expected validation error, got %v", cents, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:      1,
		Date:        NewDate(2026, 3, 10),
		Type:        Expense(),
		Description: "groceries",
		Amount:      Money{Cents: 4250},
		Category:    "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := strings200() + "x"
	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"zero date", mutate(good, func(tx *Transaction) { tx.Date = Date{} }), ErrInvalidDate},
		{"zero type", mutate(good, func(tx *Transaction) { tx.Type = TransactionType{} }), ErrInvalidTransactionType},
		{"empty description", mutate(good, func(tx *Transaction) { tx.Description = "  " }), ErrEmptyDescription},
		{"long description", mutate(good, func(tx *Transaction) { tx.Description = long }), ErrDescriptionTooLong},
		{"zero amount", mutate(good, func(tx *Transaction) { tx.Amount = Money{} }), ErrInvalidAmount},
		{"empty category", mutate(good, func(tx *Transaction) { tx.Category = "" }), ErrEmptyCategory},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUserValidate(t *testing.T) {
	good := User{Email: "mario@example.com", PasswordHash: "$2a$10$abc"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []User{
		{Email: "", PasswordHash: "h"},
		{Email: "not-an-email", PasswordHash: "h"},
		{Email: "a b@example.com", PasswordHash: "h"},
		{Email: "mario@example.com", PasswordHash: ""},
	}
	for i, u := range bads {
		if err := u.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMonthOverviewNet(t *testing.T) {
	ov := MonthOverview{IncomeTotal: Money{Cents: 300000}, ExpenseTotal: Money{Cents: 420000}}
	if got := ov.Net(); got != -120000 {
		t.Fatalf("Net() = %d, want -120000", got)
	}
}

func mutate(tx Transaction, fn func(*Transaction)) Transaction {
	fn(&tx)
	return tx
}

func strings200() string {
	b := make([]byte, 200)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
