package core

// CategoryAmount is an amount aggregated under one category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthReport is the per-category breakdown of one calendar month.
type MonthReport struct {
	Period   YearMonth
	Income   []CategoryAmount
	Expenses []CategoryAmount
}

// TotalIncome sums the income side of the report.
func (r MonthReport) TotalIncome() Money {
	var total Money
	for _, ca := range r.Income {
		total = total.Add(ca.Amount)
	}
	return total
}

// TotalExpenses sums the expense side of the report.
func (r MonthReport) TotalExpenses() Money {
	var total Money
	for _, ca := range r.Expenses {
		total = total.Add(ca.Amount)
	}
	return total
}

// BudgetStatus compares a month's planned budget with actual spending.
type BudgetStatus struct {
	Period  YearMonth
	Planned Money
	Spent   Money
}

// Remaining returns planned minus spent; negative when over budget.
func (s BudgetStatus) Remaining() Money {
	return s.Planned.Sub(s.Spent)
}

// Exceeded reports whether spending went past the planned amount.
func (s BudgetStatus) Exceeded() bool {
	return s.Spent.Cents > s.Planned.Cents
}
