package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/services"
)

const helpText = `Commands:
/set_balance <amount> - set your current balance
/balance - show your balance
/add_expense <category> <amount> - record an expense
/add_income <category> <amount> - record an income
/report [month] [year] - per-category sums for a month
/set_budget <amount> [month] [year] - set the planned budget
/budget [month] [year] - planned vs actual for a month
/add_category <income|expense> <name> - add your own category
/categories - list known categories
/clear - remove you and all your data`

type handlers struct {
	ledger *services.LedgerService
}

func (h *handlers) help(_ context.Context, _ *Command) (string, error) {
	return helpText, nil
}

func (h *handlers) start(_ context.Context, _ *Command) (string, error) {
	return "Welcome! I track your monthly budget.\n\n" + helpText, nil
}

func (h *handlers) setBalance(ctx context.Context, cmd *Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", core.NewValidationErr("usage: /set_balance <amount>")
	}
	amount, err := core.ParseMoney(cmd.Args[0])
	if err != nil {
		return "", core.NewValidationErr(fmt.Sprintf("bad amount %q: %v", cmd.Args[0], err))
	}

	user, err := h.ledger.SetBalance(ctx, cmd.User, amount)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Balance set to %s", user.Balance.String()), nil
}

func (h *handlers) balance(_ context.Context, cmd *Command) (string, error) {
	return fmt.Sprintf("Balance: %s", cmd.User.Balance.String()), nil
}

func (h *handlers) addExpense(ctx context.Context, cmd *Command) (string, error) {
	return h.recordOperation(ctx, cmd, core.Expense)
}

func (h *handlers) addIncome(ctx context.Context, cmd *Command) (string, error) {
	return h.recordOperation(ctx, cmd, core.Income)
}

func (h *handlers) recordOperation(ctx context.Context, cmd *Command, typ core.CategoryType) (string, error) {
	if len(cmd.Args) != 2 {
		return "", core.NewValidationErr(fmt.Sprintf("usage: /%s <category> <amount>", cmd.Name))
	}
	category := cmd.Args[0]
	amount, err := core.ParseMoney(cmd.Args[1])
	if err != nil {
		return "", core.NewValidationErr(fmt.Sprintf("bad amount %q: %v", cmd.Args[1], err))
	}

	user, _, err := h.ledger.RecordOperation(ctx, cmd.User, category, typ, amount)
	if err != nil {
		return "", err
	}

	kind := "expense"
	if typ == core.Income {
		kind = "income"
	}
	return fmt.Sprintf("Recorded %s %s on %s. Balance: %s",
		kind, amount.String(), category, user.Balance.String()), nil
}

func (h *handlers) report(ctx context.Context, cmd *Command) (string, error) {
	period, err := parsePeriod(cmd.Args)
	if err != nil {
		return "", err
	}

	report, err := h.ledger.MonthReport(ctx, cmd.User.ID, period)
	if err != nil {
		return "", err
	}

	if len(report.Income) == 0 && len(report.Expenses) == 0 {
		return fmt.Sprintf("No operations in %s", period), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s\n", period)
	if len(report.Income) > 0 {
		b.WriteString("Income:\n")
		for _, ca := range report.Income {
			fmt.Fprintf(&b, "  %s: %s\n", ca.Name, ca.Amount.String())
		}
		fmt.Fprintf(&b, "  total: %s\n", report.TotalIncome().String())
	}
	if len(report.Expenses) > 0 {
		b.WriteString("Expenses:\n")
		for _, ca := range report.Expenses {
			fmt.Fprintf(&b, "  %s: %s\n", ca.Name, ca.Amount.String())
		}
		fmt.Fprintf(&b, "  total: %s\n", report.TotalExpenses().String())
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (h *handlers) setBudget(ctx context.Context, cmd *Command) (string, error) {
	if len(cmd.Args) < 1 {
		return "", core.NewValidationErr("usage: /set_budget <amount> [month] [year]")
	}
	amount, err := core.ParseMoney(cmd.Args[0])
	if err != nil {
		return "", core.NewValidationErr(fmt.Sprintf("bad amount %q: %v", cmd.Args[0], err))
	}
	period, err := parsePeriod(cmd.Args[1:])
	if err != nil {
		return "", err
	}

	if err := h.ledger.SetBudget(ctx, cmd.User.ID, period, amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("Budget for %s set to %s", period, amount.String()), nil
}

func (h *handlers) budget(ctx context.Context, cmd *Command) (string, error) {
	period, err := parsePeriod(cmd.Args)
	if err != nil {
		return "", err
	}

	status, set, err := h.ledger.BudgetStatus(ctx, cmd.User.ID, period)
	if err != nil {
		return "", err
	}
	if !set {
		return fmt.Sprintf("No budget set for %s", period), nil
	}

	reply := fmt.Sprintf("Budget %s: planned %s, spent %s, remaining %s",
		period, status.Planned.String(), status.Spent.String(), status.Remaining().String())
	if status.Exceeded() {
		reply += "\nYou are over budget."
	}
	return reply, nil
}

func (h *handlers) addCategory(ctx context.Context, cmd *Command) (string, error) {
	if len(cmd.Args) != 2 {
		return "", core.NewValidationErr("usage: /add_category <income|expense> <name>")
	}
	typ, err := core.ParseCategoryType(cmd.Args[0])
	if err != nil {
		return "", core.NewValidationErr(fmt.Sprintf("bad category type %q: want income or expense", cmd.Args[0]))
	}

	category, err := h.ledger.AddCategory(ctx, cmd.User.ID, typ, cmd.Args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s category %q", strings.ToLower(string(typ)), category.Name), nil
}

func (h *handlers) categories(ctx context.Context, _ *Command) (string, error) {
	income, expenses, err := h.ledger.ListCategories(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Income categories:\n")
	for _, c := range income {
		fmt.Fprintf(&b, "  %s\n", c.Name)
	}
	b.WriteString("Expense categories:\n")
	for _, c := range expenses {
		fmt.Fprintf(&b, "  %s\n", c.Name)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (h *handlers) clear(ctx context.Context, cmd *Command) (string, error) {
	if err := h.ledger.RemoveUserData(ctx, cmd.User); err != nil {
		return "", err
	}
	return "All your data has been removed.", nil
}

// parsePeriod reads optional [month] [year] arguments, defaulting to
// the current month in UTC.
func parsePeriod(args []string) (core.YearMonth, error) {
	period := core.YearMonthOf(time.Now())

	if len(args) > 2 {
		return core.YearMonth{}, core.NewValidationErr("expected at most [month] [year]")
	}
	if len(args) >= 1 {
		month, err := strconv.Atoi(args[0])
		if err != nil {
			return core.YearMonth{}, core.NewValidationErr(fmt.Sprintf("bad month %q", args[0]))
		}
		period.Month = month
	}
	if len(args) == 2 {
		year, err := strconv.Atoi(args[1])
		if err != nil {
			return core.YearMonth{}, core.NewValidationErr(fmt.Sprintf("bad year %q", args[1]))
		}
		period.Year = year
	}

	if err := period.Validate(); err != nil {
		return core.YearMonth{}, core.NewValidationErr(err.Error())
	}
	return period, nil
}
