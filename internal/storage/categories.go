package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"budgetbot/internal/core"
)

var categoryFields = []string{"id", "user_id", "name", "type"}

// CategoryRepository implements core.CategoryRepository.
type CategoryRepository struct {
	sb squirrel.StatementBuilderType
}

func NewCategoryRepository(br squirrel.BaseRunner) CategoryRepository {
	return CategoryRepository{sb: squirrel.StatementBuilder.RunWith(br)}
}

func (r CategoryRepository) FindByName(ctx context.Context, name string, typ core.CategoryType) (core.Category, bool, error) {
	row := r.sb.
		Select(categoryFields...).
		From("categories").
		Where(squirrel.Expr("name = ? COLLATE NOCASE", name)).
		Where(squirrel.Eq{"type": typ}).
		QueryRowContext(ctx)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("find category by name: %w", err)
	}
	return c, true, nil
}

func (r CategoryRepository) Save(ctx context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	// A zero UserID means a global category, stored as NULL.
	var ownerID sql.NullInt64
	if c.UserID != 0 {
		ownerID = sql.NullInt64{Int64: c.UserID, Valid: true}
	}

	if c.ID == 0 {
		res, err := r.sb.
			Insert("categories").
			Columns("user_id", "name", "type").
			Values(ownerID, c.Name, c.Type).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert category id: %w", err)
		}
		c.ID = id
		return nil
	}

	_, err := r.sb.
		Update("categories").
		Set("user_id", ownerID).
		Set("name", c.Name).
		Set("type", c.Type).
		Where(squirrel.Eq{"id": c.ID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r CategoryRepository) ListByType(ctx context.Context, typ core.CategoryType) ([]core.Category, error) {
	rows, err := r.sb.
		Select(categoryFields...).
		From("categories").
		Where(squirrel.Eq{"type": typ}).
		OrderBy("name").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r CategoryRepository) RemoveAll(ctx context.Context) error {
	_, err := r.sb.Delete("categories").ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("remove all categories: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		ownerID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &ownerID, &c.Name, &c.Type); err != nil {
		return core.Category{}, err
	}
	if ownerID.Valid {
		c.UserID = ownerID.Int64
	}
	return c, nil
}
