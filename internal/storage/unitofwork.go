package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"budgetbot/internal/core"
)

// TxError is the single failure kind surfaced by a unit of work. The
// original cause stays reachable through errors.Is / errors.As.
type TxError struct {
	Err error
}

func (e *TxError) Error() string {
	return "unit of work failed: " + e.Err.Error()
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// UnitOfWork implements core.UnitOfWork over SQLite. Outside Execute
// its repositories run directly on the database handle; inside
// Execute they share one transaction.
type UnitOfWork struct {
	db *sql.DB
	tx *sql.Tx
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Execute runs fn within a single database transaction. It commits on
// nil return and rolls back on any error; every failure comes back as
// a *TxError wrapping the cause. The transactional handle is owned by
// this invocation alone and is never reused afterward.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(uow core.UnitOfWork) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return &TxError{Err: fmt.Errorf("begin transaction: %w", err)}
	}

	uow := &UnitOfWork{db: u.db, tx: tx}

	if err := fn(uow); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return &TxError{Err: fmt.Errorf("rollback error: %v, original error: %w", rbErr, err)}
		}
		return &TxError{Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &TxError{Err: fmt.Errorf("commit transaction: %w", err)}
	}
	return nil
}

func (u *UnitOfWork) Users() core.UserRepository {
	return NewUserRepository(u.runner())
}

func (u *UnitOfWork) Categories() core.CategoryRepository {
	return NewCategoryRepository(u.runner())
}

func (u *UnitOfWork) Operations() core.OperationRepository {
	return NewOperationRepository(u.runner())
}

func (u *UnitOfWork) Budgets() core.BudgetRepository {
	return NewBudgetRepository(u.runner())
}

// runner returns the transaction when one is active, the bare handle
// otherwise.
func (u *UnitOfWork) runner() squirrel.BaseRunner {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}
