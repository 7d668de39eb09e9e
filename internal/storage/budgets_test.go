package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"budgetbot/internal/core"
)

const saveBudgetSQL = "INSERT INTO budgets (user_id,year,month,planned_cents) VALUES (?,?,?,?) " +
	"ON CONFLICT (user_id, year, month) DO UPDATE SET planned_cents = excluded.planned_cents"

func TestBudgetRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(saveBudgetSQL).
		WithArgs(int64(1), 2025, 9, int64(100000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewBudgetRepository(db)
	b := core.Budget{
		UserID:  1,
		Period:  core.YearMonth{Year: 2025, Month: 9},
		Planned: core.Money{Cents: 100000},
	}
	assert.NoError(t, repo.Save(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetRepository_Save_Invalid(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	repo := NewBudgetRepository(db)
	b := core.Budget{UserID: 1, Period: core.YearMonth{Year: 2025, Month: 0}, Planned: core.Money{Cents: 1}}
	assert.ErrorIs(t, repo.Save(context.Background(), b), core.ErrInvalidPeriod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetRepository_Get(t *testing.T) {
	period := core.YearMonth{Year: 2025, Month: 9}
	getSQL := "SELECT id, user_id, year, month, planned_cents FROM budgets " +
		"WHERE user_id = ? AND year = ? AND month = ?"

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		assert.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(budgetFields).AddRow(int64(2), int64(1), 2025, 9, int64(100000))
		mock.ExpectQuery(getSQL).
			WithArgs(int64(1), 2025, 9).
			WillReturnRows(rows)

		repo := NewBudgetRepository(db)
		got, found, err := repo.Get(context.Background(), 1, period)

		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, core.Budget{ID: 2, UserID: 1, Period: period, Planned: core.Money{Cents: 100000}}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(getSQL).
			WithArgs(int64(1), 2025, 9).
			WillReturnRows(sqlmock.NewRows(budgetFields))

		repo := NewBudgetRepository(db)
		_, found, err := repo.Get(context.Background(), 1, period)

		assert.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBudgetRepository_SelectRange(t *testing.T) {
	selectSQL := "SELECT id, user_id, year, month, planned_cents FROM budgets " +
		"WHERE user_id = ? AND year * 100 + month BETWEEN ? AND ? " +
		"ORDER BY year, month"

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	// November has no budget row and is simply omitted.
	rows := sqlmock.NewRows(budgetFields).
		AddRow(int64(1), int64(1), 2025, 10, int64(90000)).
		AddRow(int64(2), int64(1), 2025, 12, int64(120000))
	mock.ExpectQuery(selectSQL).
		WithArgs(int64(1), 202510, 202512).
		WillReturnRows(rows)

	repo := NewBudgetRepository(db)
	got, err := repo.SelectRange(context.Background(), 1,
		core.YearMonth{Year: 2025, Month: 10},
		core.YearMonth{Year: 2025, Month: 12},
	)

	assert.NoError(t, err)
	assert.Equal(t, []core.Budget{
		{ID: 1, UserID: 1, Period: core.YearMonth{Year: 2025, Month: 10}, Planned: core.Money{Cents: 90000}},
		{ID: 2, UserID: 1, Period: core.YearMonth{Year: 2025, Month: 12}, Planned: core.Money{Cents: 120000}},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
