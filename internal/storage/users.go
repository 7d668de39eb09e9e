package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"budgetbot/internal/core"
)

var userFields = []string{"id", "chat_id", "balance_cents"}

// UserRepository implements core.UserRepository. It is stateless: the
// transactional handle comes from the unit of work that built it.
type UserRepository struct {
	sb squirrel.StatementBuilderType
}

func NewUserRepository(br squirrel.BaseRunner) UserRepository {
	return UserRepository{sb: squirrel.StatementBuilder.RunWith(br)}
}

func (r UserRepository) FindByChatID(ctx context.Context, chatID int64) (core.User, bool, error) {
	var u core.User
	err := r.sb.
		Select(userFields...).
		From("users").
		Where(squirrel.Eq{"chat_id": chatID}).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.ChatID, &u.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, fmt.Errorf("find user by chat id: %w", err)
	}
	return u, true, nil
}

// Save upserts keyed by internal id: insert when the user has no
// identity yet, update otherwise.
func (r UserRepository) Save(ctx context.Context, u *core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	if u.ID == 0 {
		res, err := r.sb.
			Insert("users").
			Columns("chat_id", "balance_cents").
			Values(u.ChatID, u.Balance.Cents).
			Suffix("ON CONFLICT (chat_id) DO NOTHING").
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert user affected: %w", err)
		}
		// lost a first-contact race; the caller re-reads by chat id
		if affected == 0 {
			return nil
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert user id: %w", err)
		}
		u.ID = id
		return nil
	}

	_, err := r.sb.
		Update("users").
		Set("chat_id", u.ChatID).
		Set("balance_cents", u.Balance.Cents).
		Where(squirrel.Eq{"id": u.ID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// AdjustBalance applies delta relative to the stored balance, never to
// an in-memory snapshot, so concurrent commands cannot lose updates.
func (r UserRepository) AdjustBalance(ctx context.Context, id int64, delta core.Money) error {
	res, err := r.sb.
		Update("users").
		Set("balance_cents", squirrel.Expr("balance_cents + ?", delta.Cents)).
		Where(squirrel.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance affected: %w", err)
	}
	if affected == 0 {
		return core.NewNotFoundErr(fmt.Sprintf("user %d not found", id))
	}
	return nil
}

// RemoveByID deletes the user and, through the schema's cascades, all
// owned operations and budgets. Deleting an absent id is a no-op.
func (r UserRepository) RemoveByID(ctx context.Context, id int64) error {
	_, err := r.sb.
		Delete("users").
		Where(squirrel.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}
