package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  CategoryType = "INCOME"
	Expense CategoryType = "EXPENSE"
)

type (
	// CategoryType classifies a category as income or expense and
	// governs how its operations affect the user's balance.
	CategoryType string

	// YearMonth is a calendar-month bucket used to key budgets and
	// aggregate operations.
	YearMonth struct {
		Year  int
		Month int // 1-12
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID      int64
		ChatID  int64 // external chat identifier, unique
		Balance Money
	}

	Category struct {
		ID     int64
		UserID int64 // 0 for global reference categories
		Name   string
		Type   CategoryType
	}

	// Operation is an immutable income/expense record owned by a user.
	Operation struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     Money // always positive; sign comes from the category type
		CreatedAt  time.Time
	}

	// Budget holds the planned amount for one (user, year-month) pair.
	// Actual spending is always derived from operations.
	Budget struct {
		ID      int64
		UserID  int64
		Period  YearMonth
		Planned Money
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrEmptyName     = errors.New("empty category name")
	ErrInvalidType   = errors.New("invalid category type")
	ErrInvalidChatID = errors.New("invalid chat id")
)

func (t CategoryType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

// ParseCategoryType accepts the type in any case ("expense", "INCOME").
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (p YearMonth) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidPeriod
	}
	if p.Year < 1970 || p.Year > 9999 {
		return ErrInvalidPeriod
	}
	return nil
}

// Start returns the first instant of the period in UTC.
func (p YearMonth) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// NextStart returns the first instant of the following period. The
// aggregation window for p is [Start, NextStart).
func (p YearMonth) NextStart() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Next returns the following calendar period.
func (p YearMonth) Next() YearMonth {
	t := p.NextStart()
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Before reports whether p is strictly earlier than other.
func (p YearMonth) Before(other YearMonth) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p YearMonth) String() string {
	return p.Start().Format("2006-01")
}

// YearMonthOf returns the period containing t, evaluated in UTC.
func YearMonthOf(t time.Time) YearMonth {
	u := t.UTC()
	return YearMonth{Year: u.Year(), Month: int(u.Month())}
}

func (u User) Validate() error {
	if u.ChatID == 0 {
		return ErrInvalidChatID
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 64 {
		return errors.New("category name too long (max 64 characters)")
	}
	return c.Type.Validate()
}

func (o Operation) Validate() error {
	if o.UserID == 0 || o.CategoryID == 0 {
		return errors.New("operation must reference a user and a category")
	}
	return o.Amount.Validate()
}

func (b Budget) Validate() error {
	if b.UserID == 0 {
		return errors.New("budget must reference a user")
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	return b.Planned.Validate()
}
