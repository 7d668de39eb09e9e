package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"budgetbot/internal/core"
)

var budgetFields = []string{"id", "user_id", "year", "month", "planned_cents"}

// BudgetRepository implements core.BudgetRepository. The schema's
// UNIQUE(user_id, year, month) plus the upsert in Save keep at most
// one budget row per user and period, even under concurrent writers.
type BudgetRepository struct {
	sb squirrel.StatementBuilderType
}

func NewBudgetRepository(br squirrel.BaseRunner) BudgetRepository {
	return BudgetRepository{sb: squirrel.StatementBuilder.RunWith(br)}
}

func (r BudgetRepository) Save(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	_, err := r.sb.
		Insert("budgets").
		Columns("user_id", "year", "month", "planned_cents").
		Values(b.UserID, b.Period.Year, b.Period.Month, b.Planned.Cents).
		Suffix("ON CONFLICT (user_id, year, month) DO UPDATE SET planned_cents = excluded.planned_cents").
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

func (r BudgetRepository) Get(ctx context.Context, userID int64, period core.YearMonth) (core.Budget, bool, error) {
	var b core.Budget
	err := r.sb.
		Select(budgetFields...).
		From("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"year": period.Year}).
		Where(squirrel.Eq{"month": period.Month}).
		QueryRowContext(ctx).
		Scan(&b.ID, &b.UserID, &b.Period.Year, &b.Period.Month, &b.Planned.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("get budget: %w", err)
	}
	return b, true, nil
}

// SelectRange returns the budgets between from and to inclusive,
// ordered by period. Periods with no budget row are omitted, not
// synthesized with zero values.
func (r BudgetRepository) SelectRange(ctx context.Context, userID int64, from, to core.YearMonth) ([]core.Budget, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.sb.
		Select(budgetFields...).
		From("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Expr(
			"year * 100 + month BETWEEN ? AND ?",
			from.Year*100+from.Month,
			to.Year*100+to.Month,
		)).
		OrderBy("year", "month").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select budget range: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Period.Year, &b.Period.Month, &b.Planned.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select budget range: %w", err)
	}
	return budgets, nil
}
