// Package services orchestrates unit-of-work invocations around the
// ledger: balances, operations, budgets and categories.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"budgetbot/internal/amqp"
	"budgetbot/internal/cache"
	"budgetbot/internal/core"
)

// EventPublisher emits operation events after a commit. Implemented by
// the AMQP client; nil disables publishing.
type EventPublisher interface {
	PublishOperationRecorded(ctx context.Context, msg *amqp.OperationRecordedMessage) error
}

const (
	categoryCacheSize = 128
	categoryCacheTTL  = 10 * time.Minute
)

// LedgerService runs every mutation inside a single unit of work and
// keeps a small cache over the read-mostly category table.
type LedgerService struct {
	uow        core.UnitOfWork
	publisher  EventPublisher
	categories *cache.LRUCache[core.Category]
}

func NewLedgerService(uow core.UnitOfWork, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		uow:        uow,
		publisher:  publisher,
		categories: cache.NewLRUCache[core.Category](categoryCacheSize, categoryCacheTTL),
	}
}

// EnsureUser returns the user for the chat id, creating one with zero
// balance on first contact.
func (s *LedgerService) EnsureUser(ctx context.Context, chatID int64) (core.User, error) {
	var user core.User
	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		found, ok, err := uow.Users().FindByChatID(ctx, chatID)
		if err != nil {
			return err
		}
		if ok {
			user = found
			return nil
		}

		fresh := core.User{ChatID: chatID}
		if err := uow.Users().Save(ctx, &fresh); err != nil {
			return err
		}

		// a simultaneous first contact may have won the insert; either
		// way the row exists now, so read it back
		found, ok, err = uow.Users().FindByChatID(ctx, chatID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user with chat id %d missing after insert", chatID)
		}
		user = found
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	return user, nil
}

// SetBalance overwrites the user's balance and returns the updated user.
func (s *LedgerService) SetBalance(ctx context.Context, user core.User, amount core.Money) (core.User, error) {
	if err := amount.Validate(); err != nil {
		return core.User{}, core.NewValidationErr(err.Error())
	}
	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		user.Balance = amount
		return uow.Users().Save(ctx, &user)
	})
	if err != nil {
		return core.User{}, err
	}
	return user, nil
}

// RecordOperation resolves the category, inserts the operation and
// adjusts the user's balance in one unit of work, then publishes an
// operation recorded event best-effort.
func (s *LedgerService) RecordOperation(ctx context.Context, user core.User, categoryName string, typ core.CategoryType, amount core.Money) (core.User, core.Operation, error) {
	if err := amount.Validate(); err != nil {
		return core.User{}, core.Operation{}, core.NewValidationErr(err.Error())
	}

	var op core.Operation
	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		category, err := s.resolveCategory(ctx, uow, categoryName, typ)
		if err != nil {
			return err
		}

		op, err = uow.Operations().Add(ctx, user.ID, category.ID, amount, time.Time{})
		if err != nil {
			return err
		}

		// adjust relative to the stored balance, not the caller's
		// snapshot; a concurrent command may have moved it already
		delta := amount
		if typ == core.Expense {
			delta = core.Money{Cents: -amount.Cents}
		}
		if err := uow.Users().AdjustBalance(ctx, user.ID, delta); err != nil {
			return err
		}

		updated, ok, err := uow.Users().FindByChatID(ctx, user.ChatID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NewNotFoundErr(fmt.Sprintf("user with chat id %d no longer exists", user.ChatID))
		}
		user = updated
		return nil
	})
	if err != nil {
		return core.User{}, core.Operation{}, err
	}

	s.publishOperationRecorded(ctx, user, op, typ)

	return user, op, nil
}

// MonthReport aggregates the user's operations for one calendar month,
// both sides sorted by category name.
func (s *LedgerService) MonthReport(ctx context.Context, userID int64, period core.YearMonth) (core.MonthReport, error) {
	if err := period.Validate(); err != nil {
		return core.MonthReport{}, core.NewValidationErr(err.Error())
	}

	report := core.MonthReport{Period: period}
	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		income, err := uow.Operations().SumByCategoryForPeriod(ctx, userID, period, core.Income)
		if err != nil {
			return err
		}
		expenses, err := uow.Operations().SumByCategoryForPeriod(ctx, userID, period, core.Expense)
		if err != nil {
			return err
		}
		report.Income = sortedAmounts(income)
		report.Expenses = sortedAmounts(expenses)
		return nil
	})
	if err != nil {
		return core.MonthReport{}, err
	}
	return report, nil
}

// SetBudget upserts the planned budget for the period.
func (s *LedgerService) SetBudget(ctx context.Context, userID int64, period core.YearMonth, planned core.Money) error {
	budget := core.Budget{UserID: userID, Period: period, Planned: planned}
	if err := budget.Validate(); err != nil {
		return core.NewValidationErr(err.Error())
	}
	return s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		return uow.Budgets().Save(ctx, budget)
	})
}

// BudgetStatus compares the period's planned budget with the expense
// total. The boolean is false when no budget is set for the period.
func (s *LedgerService) BudgetStatus(ctx context.Context, userID int64, period core.YearMonth) (core.BudgetStatus, bool, error) {
	if err := period.Validate(); err != nil {
		return core.BudgetStatus{}, false, core.NewValidationErr(err.Error())
	}

	var (
		status core.BudgetStatus
		set    bool
	)
	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		budget, ok, err := uow.Budgets().Get(ctx, userID, period)
		if err != nil {
			return err
		}
		set = ok

		expenses, err := uow.Operations().SumByCategoryForPeriod(ctx, userID, period, core.Expense)
		if err != nil {
			return err
		}

		status = core.BudgetStatus{Period: period, Planned: budget.Planned}
		for _, amount := range expenses {
			status.Spent = status.Spent.Add(amount)
		}
		return nil
	})
	if err != nil {
		return core.BudgetStatus{}, false, err
	}
	return status, set, nil
}

// AddCategory creates a user-defined category. A category with the same
// name and type, global or not, counts as a duplicate.
func (s *LedgerService) AddCategory(ctx context.Context, userID int64, typ core.CategoryType, name string) (core.Category, error) {
	category := core.Category{UserID: userID, Name: strings.TrimSpace(name), Type: typ}
	if err := category.Validate(); err != nil {
		return core.Category{}, core.NewValidationErr(err.Error())
	}

	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		_, exists, err := uow.Categories().FindByName(ctx, category.Name, typ)
		if err != nil {
			return err
		}
		if exists {
			return core.NewValidationErr(fmt.Sprintf("category %q already exists", category.Name))
		}
		return uow.Categories().Save(ctx, &category)
	})
	if err != nil {
		return core.Category{}, err
	}

	s.categories.Set(categoryKey(category.Name, typ), category)
	return category, nil
}

// ListCategories returns the known categories, income first, each side
// ordered by name.
func (s *LedgerService) ListCategories(ctx context.Context) (income, expenses []core.Category, err error) {
	err = s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		income, err = uow.Categories().ListByType(ctx, core.Income)
		if err != nil {
			return err
		}
		expenses, err = uow.Categories().ListByType(ctx, core.Expense)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return income, expenses, nil
}

// RemoveUserData deletes the user; operations, budgets and the user's
// own categories go with it through cascading deletes.
func (s *LedgerService) RemoveUserData(ctx context.Context, user core.User) error {
	err := s.uow.Execute(ctx, func(uow core.UnitOfWork) error {
		return uow.Users().RemoveByID(ctx, user.ID)
	})
	if err != nil {
		return err
	}
	s.categories.Clear()
	return nil
}

func (s *LedgerService) resolveCategory(ctx context.Context, uow core.UnitOfWork, name string, typ core.CategoryType) (core.Category, error) {
	name = strings.TrimSpace(name)
	key := categoryKey(name, typ)

	if category, ok := s.categories.Get(key); ok {
		return category, nil
	}

	category, ok, err := uow.Categories().FindByName(ctx, name, typ)
	if err != nil {
		return core.Category{}, err
	}
	if !ok {
		return core.Category{}, core.NewNotFoundErr(fmt.Sprintf("unknown %s category %q", strings.ToLower(string(typ)), name))
	}

	s.categories.Set(key, category)
	return category, nil
}

func (s *LedgerService) publishOperationRecorded(ctx context.Context, user core.User, op core.Operation, typ core.CategoryType) {
	if s.publisher == nil {
		return
	}

	period := core.YearMonthOf(op.CreatedAt)
	msg := amqp.NewOperationRecordedMessage(op.ID, user.ID, user.ChatID, period.Year, period.Month, string(typ))
	if err := s.publisher.PublishOperationRecorded(ctx, msg); err != nil {
		// the operation is committed; the event is best-effort
		slog.ErrorContext(ctx, "Failed to publish operation recorded message",
			"operation_id", op.ID, "error", err)
	}
}

func categoryKey(name string, typ core.CategoryType) string {
	return string(typ) + ":" + strings.ToLower(name)
}

func sortedAmounts(sums map[string]core.Money) []core.CategoryAmount {
	amounts := make([]core.CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		amounts = append(amounts, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].Name < amounts[j].Name })
	return amounts
}
