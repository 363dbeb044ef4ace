package core

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact summary for a specific year+month: totals per
// transaction direction, net balance, and per-category expense sums.
type MonthOverview struct {
	Year         int
	Month        int // 1-12
	IncomeTotal  Money
	ExpenseTotal Money
	ByCategory   []CategoryAmount
}

// Net returns income minus expenses in cents. May be negative.
func (o MonthOverview) Net() int64 {
	return o.IncomeTotal.Cents - o.ExpenseTotal.Cents
}
