package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"budgetbot/internal/core"
)

// OperationRepository implements core.OperationRepository. Timestamps
// are stored as UTC unix seconds so that range comparisons stay exact.
type OperationRepository struct {
	sb squirrel.StatementBuilderType
}

func NewOperationRepository(br squirrel.BaseRunner) OperationRepository {
	return OperationRepository{sb: squirrel.StatementBuilder.RunWith(br)}
}

// Add inserts a new immutable operation record. A zero createdAt
// defaults to the current time.
func (r OperationRepository) Add(ctx context.Context, userID, categoryID int64, amount core.Money, createdAt time.Time) (core.Operation, error) {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC().Truncate(time.Second)

	op := core.Operation{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		CreatedAt:  createdAt,
	}
	if err := op.Validate(); err != nil {
		return core.Operation{}, err
	}

	res, err := r.sb.
		Insert("operations").
		Columns("user_id", "category_id", "amount_cents", "created_at").
		Values(userID, categoryID, amount.Cents, createdAt.Unix()).
		ExecContext(ctx)
	if err != nil {
		return core.Operation{}, fmt.Errorf("insert operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Operation{}, fmt.Errorf("insert operation id: %w", err)
	}
	op.ID = id
	return op, nil
}

// SumByCategoryForPeriod aggregates the user's operations of the given
// category type over [period start, next period start). The result is
// never nil; an empty map means no matching operations.
func (r OperationRepository) SumByCategoryForPeriod(ctx context.Context, userID int64, period core.YearMonth, typ core.CategoryType) (map[string]core.Money, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.sb.
		Select("c.name", "SUM(o.amount_cents)").
		From("operations o").
		Join("categories c ON c.id = o.category_id").
		Where(squirrel.Eq{"o.user_id": userID}).
		Where(squirrel.Eq{"c.type": typ}).
		Where(squirrel.GtOrEq{"o.created_at": period.Start().Unix()}).
		Where(squirrel.Lt{"o.created_at": period.NextStart().Unix()}).
		GroupBy("c.name").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]core.Money)
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums[name] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	return sums, nil
}
