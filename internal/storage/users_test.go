package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"budgetbot/internal/core"
)

func TestUserRepository_FindByChatID(t *testing.T) {
	tests := map[string]struct {
		setExpectations func(mock sqlmock.Sqlmock)
		chatID          int64
		expectedUser    core.User
		expectedFound   bool
		expectErr       bool
	}{
		"found": {
			chatID: 42,
			setExpectations: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userFields).AddRow(int64(1), int64(42), int64(50000))
				mock.ExpectQuery("SELECT id, chat_id, balance_cents FROM users WHERE chat_id = ?").
					WithArgs(int64(42)).
					WillReturnRows(rows)
			},
			expectedUser:  core.User{ID: 1, ChatID: 42, Balance: core.Money{Cents: 50000}},
			expectedFound: true,
		},
		"absent": {
			chatID: 42,
			setExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, chat_id, balance_cents FROM users WHERE chat_id = ?").
					WithArgs(int64(42)).
					WillReturnRows(sqlmock.NewRows(userFields))
			},
			expectedFound: false,
		},
		"database-error": {
			chatID: 42,
			setExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, chat_id, balance_cents FROM users WHERE chat_id = ?").
					WithArgs(int64(42)).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			assert.NoError(t, err)
			defer db.Close()

			tt.setExpectations(mock)

			repo := NewUserRepository(db)
			got, found, gotErr := repo.FindByChatID(context.Background(), tt.chatID)

			if tt.expectErr {
				assert.Error(t, gotErr)
			} else {
				assert.NoError(t, gotErr)
				assert.Equal(t, tt.expectedFound, found)
				assert.Equal(t, tt.expectedUser, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Save_Insert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users (chat_id,balance_cents) VALUES (?,?) ON CONFLICT (chat_id) DO NOTHING").
		WithArgs(int64(42), int64(0)).
		WillReturnResult(sqlmock.NewResult(5, 1))

	repo := NewUserRepository(db)
	u := core.User{ChatID: 42}
	assert.NoError(t, repo.Save(context.Background(), &u))
	assert.Equal(t, int64(5), u.ID, "insert assigns identity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Save_InsertLosesChatIDRace(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	// conflicting insert affects zero rows and must not error
	mock.ExpectExec("INSERT INTO users (chat_id,balance_cents) VALUES (?,?) ON CONFLICT (chat_id) DO NOTHING").
		WithArgs(int64(42), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	u := core.User{ChatID: 42}
	assert.NoError(t, repo.Save(context.Background(), &u))
	assert.Zero(t, u.ID, "no identity assigned when the row already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AdjustBalance(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	// relative update against the stored value, not a snapshot
	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?").
		WithArgs(int64(-10000), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepository(db)
	assert.NoError(t, repo.AdjustBalance(context.Background(), 5, core.Money{Cents: -10000}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AdjustBalance_MissingUser(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?").
		WithArgs(int64(100), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	err = repo.AdjustBalance(context.Background(), 9, core.Money{Cents: 100})
	var notFound *core.NotFoundErr
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Save_Update(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET chat_id = ?, balance_cents = ? WHERE id = ?").
		WithArgs(int64(42), int64(50000), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepository(db)
	u := core.User{ID: 5, ChatID: 42, Balance: core.Money{Cents: 50000}}
	assert.NoError(t, repo.Save(context.Background(), &u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Save_Invalid(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	u := core.User{} // no chat id
	assert.ErrorIs(t, repo.Save(context.Background(), &u), core.ErrInvalidChatID)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement reaches the store")
}

func TestUserRepository_RemoveByID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close()

	// Idempotent: zero affected rows is not an error.
	mock.ExpectExec("DELETE FROM users WHERE id = ?").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	assert.NoError(t, repo.RemoveByID(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}
