package core

import (
	"context"
	"time"
)

// UserRepository persists users keyed by internal id, with lookup by
// the external chat identifier.
type UserRepository interface {
	// FindByChatID returns the user with the given chat id, and false
	// when no such user exists.
	FindByChatID(ctx context.Context, chatID int64) (User, bool, error)
	// Save inserts the user when it has no identity yet (setting ID),
	// otherwise updates the existing row by internal id. An insert that
	// loses a chat-id race is a no-op and leaves ID zero; callers
	// re-read by chat id.
	Save(ctx context.Context, u *User) error
	// AdjustBalance adds delta (negative for expenses) to the stored
	// balance in place, so concurrent adjustments never overwrite each
	// other.
	AdjustBalance(ctx context.Context, id int64, delta Money) error
	// RemoveByID deletes the user if present; a no-op otherwise.
	RemoveByID(ctx context.Context, id int64) error
}

// CategoryRepository manages shared and user-defined categories.
type CategoryRepository interface {
	// FindByName returns the category with the given name and type,
	// and false when no such category exists. Names are matched
	// case-insensitively.
	FindByName(ctx context.Context, name string, typ CategoryType) (Category, bool, error)
	// Save inserts the category when it has no identity yet,
	// otherwise updates the existing row.
	Save(ctx context.Context, c *Category) error
	// ListByType returns all categories of the given type ordered by name.
	ListByType(ctx context.Context, typ CategoryType) ([]Category, error)
	// RemoveAll deletes every category. Test teardown only.
	RemoveAll(ctx context.Context) error
}

// OperationRepository records immutable income/expense operations and
// aggregates them per category and calendar month.
type OperationRepository interface {
	// Add inserts a new operation. A zero createdAt means now.
	Add(ctx context.Context, userID, categoryID int64, amount Money, createdAt time.Time) (Operation, error)
	// SumByCategoryForPeriod sums the user's operations whose category
	// has the given type and whose creation time falls within
	// [period start, next period start). The returned map is never
	// nil; it is empty when nothing matched.
	SumByCategoryForPeriod(ctx context.Context, userID int64, period YearMonth, typ CategoryType) (map[string]Money, error)
}

// BudgetRepository keeps at most one planned budget per (user, period).
type BudgetRepository interface {
	// Save upserts the budget for its (user, period) pair.
	Save(ctx context.Context, b Budget) error
	// Get returns the budget for the period, and false when none is set.
	Get(ctx context.Context, userID int64, period YearMonth) (Budget, bool, error)
	// SelectRange returns the budgets with a row in [from, to],
	// ordered by period ascending. Periods without a row are omitted.
	SelectRange(ctx context.Context, userID int64, from, to YearMonth) ([]Budget, error)
}

// UnitOfWork exposes the repositories bound to one transactional
// handle and runs functions inside a single atomic transaction.
type UnitOfWork interface {
	Users() UserRepository
	Categories() CategoryRepository
	Operations() OperationRepository
	Budgets() BudgetRepository
	// Execute begins a transaction, invokes fn with a UnitOfWork whose
	// repositories run on that transaction, commits on nil return and
	// rolls back otherwise. The handle never outlives the call.
	Execute(ctx context.Context, fn func(uow UnitOfWork) error) error
}
