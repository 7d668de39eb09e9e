package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"budgetbot/internal/core"
)

func TestUnitOfWork_Execute(t *testing.T) {
	tests := map[string]struct {
		setupMock func(sqlmock.Sqlmock)
		fn        func(uow core.UnitOfWork) error
		expectErr bool
	}{
		"success-commit": {
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("DELETE FROM users WHERE id = ?").
					WithArgs(int64(7)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
			fn: func(uow core.UnitOfWork) error {
				return uow.Users().RemoveByID(context.Background(), 7)
			},
			expectErr: false,
		},
		"rollback-on-error": {
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("DELETE FROM users WHERE id = ?").
					WithArgs(int64(7)).
					WillReturnError(errors.New("delete error"))
				m.ExpectRollback()
			},
			fn: func(uow core.UnitOfWork) error {
				return uow.Users().RemoveByID(context.Background(), 7)
			},
			expectErr: true,
		},
		"begin-error": {
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectBegin().WillReturnError(errors.New("begin error"))
			},
			fn: func(uow core.UnitOfWork) error {
				return nil
			},
			expectErr: true,
		},
		"commit-error": {
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(errors.New("commit error"))
			},
			fn: func(uow core.UnitOfWork) error {
				return nil
			},
			expectErr: true,
		},
		"rollback-error-keeps-original": {
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback().WillReturnError(errors.New("rollback error"))
			},
			fn: func(uow core.UnitOfWork) error {
				return errors.New("handler error")
			},
			expectErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			assert.NoError(t, err)
			defer db.Close()

			tt.setupMock(mock)

			uow := NewUnitOfWork(db)
			err = uow.Execute(context.Background(), tt.fn)

			if tt.expectErr {
				assert.Error(t, err)
				var txErr *TxError
				assert.True(t, errors.As(err, &txErr), "every failure is a TxError")
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUnitOfWork_ErrorUnwrapsToCause(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	uow := NewUnitOfWork(db)
	cause := core.NewValidationErr("bad amount")
	err = uow.Execute(context.Background(), func(core.UnitOfWork) error {
		return cause
	})

	// Handlers still reach the domain error through the TxError wrap.
	var vErr *core.ValidationErr
	assert.True(t, errors.As(err, &vErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_SharedTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	// Both repository calls must run on the same transaction.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO operations (user_id,category_id,amount_cents,created_at) VALUES (?,?,?,?)").
		WithArgs(int64(1), int64(3), int64(12000), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?").
		WithArgs(int64(-12000), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uow := NewUnitOfWork(db)
	err = uow.Execute(context.Background(), func(uow core.UnitOfWork) error {
		if _, err := uow.Operations().Add(context.Background(), 1, 3, core.Money{Cents: 12000}, time.Time{}); err != nil {
			return err
		}
		return uow.Users().AdjustBalance(context.Background(), 1, core.Money{Cents: -12000})
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_Repositories(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	uow := NewUnitOfWork(db)

	assert.IsType(t, UserRepository{}, uow.Users())
	assert.IsType(t, CategoryRepository{}, uow.Categories())
	assert.IsType(t, OperationRepository{}, uow.Operations())
	assert.IsType(t, BudgetRepository{}, uow.Budgets())
}
