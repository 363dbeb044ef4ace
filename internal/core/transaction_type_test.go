package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTransactionTypeRoundTrip(t *testing.T) {
	for _, tag := range []string{"INCOME", "EXPENSE"} {
		tt, err := ParseTransactionType(tag)
		if err != nil {
			t.Fatalf("%q expected ok, got %v", tag, err)
		}
		if tt.String() != tag {
			t.Fatalf("%q round-trip gave %q", tag, tt.String())
		}
	}
}

func TestParseTransactionTypeRejects(t *testing.T) {
	cases := []string{
		"",
		"income",
		"expense",
		"Income",
		" INCOME",
		"INCOME ",
		"TRANSFER",
		"INCOMES",
	}
	for _, in := range cases {
		_, err := ParseTransactionType(in)
		if err == nil {
			t.Fatalf("%q expected error", in)
		}
		if !IsValidation(err) {
			t.Fatalf("%q expected validation error, got %v", in, err)
		}
		if !errors.Is(err, ErrInvalidTransactionType) {
			t.Fatalf("%q expected ErrInvalidTransactionType, got %v", in, err)
		}
	}
}

func TestTransactionTypeConstructors(t *testing.T) {
	if !Income().IsIncome() || Income().IsExpense() {
		t.Fatal("Income() predicates wrong")
	}
	if !Expense().IsExpense() || Expense().IsIncome() {
		t.Fatal("Expense() predicates wrong")
	}
	if Income().String() != "INCOME" {
		t.Fatalf("Income().String() = %q", Income().String())
	}
	if Expense().String() != "EXPENSE" {
		t.Fatalf("Expense().String() = %q", Expense().String())
	}
}

func TestTransactionTypeEquality(t *testing.T) {
	parsedIncome, err := ParseTransactionType("INCOME")
	if err != nil {
		t.Fatal(err)
	}
	parsedExpense, err := ParseTransactionType("EXPENSE")
	if err != nil {
		t.Fatal(err)
	}

	if !Income().Equal(parsedIncome) {
		t.Fatal("Income() should equal parsed INCOME")
	}
	if !Expense().Equal(parsedExpense) {
		t.Fatal("Expense() should equal parsed EXPENSE")
	}
	if Income().Equal(Expense()) {
		t.Fatal("Income() should not equal Expense()")
	}
	if Income() != parsedIncome {
		t.Fatal("== should agree with Equal for matching tags")
	}
	if Income() == Expense() {
		t.Fatal("== should agree with Equal for differing tags")
	}
	// Reflexive
	if !parsedIncome.Equal(parsedIncome) {
		t.Fatal("equality should be reflexive")
	}
	// Symmetric
	if parsedIncome.Equal(parsedExpense) != parsedExpense.Equal(parsedIncome) {
		t.Fatal("equality should be symmetric")
	}
}

func TestTransactionTypePredicatesExclusive(t *testing.T) {
	for _, tt := range []TransactionType{Income(), Expense()} {
		if tt.IsIncome() == tt.IsExpense() {
			t.Fatalf("%s: predicates must be mutually exclusive and exhaustive", tt)
		}
	}
}

func TestTransactionTypeZeroValueInvalid(t *testing.T) {
	var zero TransactionType
	if err := zero.Validate(); err == nil {
		t.Fatal("zero value should not validate")
	}
	if zero.IsIncome() || zero.IsExpense() {
		t.Fatal("zero value should satisfy no predicate")
	}
	if _, err := zero.Value(); err == nil {
		t.Fatal("zero value should not be storable")
	}
	if _, err := json.Marshal(zero); err == nil {
		t.Fatal("zero value should not be marshalable")
	}
}

func TestTransactionTypeJSON(t *testing.T) {
	data, err := json.Marshal(Expense())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"EXPENSE"` {
		t.Fatalf("marshal gave %s", data)
	}

	var tt TransactionType
	if err := json.Unmarshal([]byte(`"INCOME"`), &tt); err != nil {
		t.Fatal(err)
	}
	if !tt.Equal(Income()) {
		t.Fatalf("unmarshal gave %s", tt)
	}

	for _, in := range []string{`"income"`, `""`, `42`, `null`} {
		var bad TransactionType
		if err := json.Unmarshal([]byte(in), &bad); err == nil {
			t.Fatalf("%s expected unmarshal error", in)
		}
	}
}

func TestTransactionTypeScan(t *testing.T) {
	var tt TransactionType
	if err := tt.Scan("INCOME"); err != nil {
		t.Fatal(err)
	}
	if !tt.IsIncome() {
		t.Fatal("scan should produce INCOME")
	}
	if err := tt.Scan([]byte("EXPENSE")); err != nil {
		t.Fatal(err)
	}
	if !tt.IsExpense() {
		t.Fatal("scan should produce EXPENSE")
	}
	if err := tt.Scan("withdrawal"); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := tt.Scan(12); err == nil {
		t.Fatal("expected error for non-string column")
	}
}
