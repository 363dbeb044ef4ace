package google

import (
	"testing"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
)

func TestTransactionRow(t *testing.T) {
	tx := core.Transaction{
		ID:          42,
		UserID:      1,
		Date:        core.NewDate(2026, 8, 3),
		Type:        core.Expense(),
		Description: "groceries",
		Amount:      core.Money{Cents: 1250},
		Category:    "Food",
	}

	row := transactionRow(tx)
	want := []any{"2026-08-03", "groceries", "12.50", "EXPENSE", "Food", "42"}
	if len(row) != rowWidth {
		t.Fatalf("row width = %d, want %d", len(row), rowWidth)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestFindRowByID(t *testing.T) {
	values := [][]any{
		{"id"}, // header
		{"7"},
		{},       // blank row
		{" 42 "}, // sheets sometimes pads cells
		{42.0},   // or returns numbers
	}

	tests := []struct {
		name string
		id   int64
		want int
	}{
		{"string cell", 7, 1},
		{"padded cell", 42, 3},
		{"missing", 99, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findRowByID(values, tt.id); got != tt.want {
				t.Errorf("findRowByID(%d) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}
