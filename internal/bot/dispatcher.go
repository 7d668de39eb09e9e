// Package bot turns incoming chat messages into ledger operations and
// user-facing replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetbot/internal/core"
	"budgetbot/internal/services"
)

// Command is one parsed chat command bound to the resolved user.
type Command struct {
	User core.User
	Name string
	Args []string
}

// HandlerFunc executes one command and returns the reply text. Errors
// that the user cannot fix propagate to the gateway.
type HandlerFunc func(ctx context.Context, cmd *Command) (string, error)

// Dispatcher routes commands by lower-cased name. The handler map is
// built once at construction and never mutated afterwards.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher(ledger *services.LedgerService) *Dispatcher {
	h := &handlers{ledger: ledger}
	return &Dispatcher{
		handlers: map[string]HandlerFunc{
			"start":        h.start,
			"help":         h.help,
			"set_balance":  h.setBalance,
			"balance":      h.balance,
			"add_expense":  h.addExpense,
			"add_income":   h.addIncome,
			"report":       h.report,
			"set_budget":   h.setBudget,
			"budget":       h.budget,
			"add_category": h.addCategory,
			"categories":   h.categories,
			"clear":        h.clear,
		},
	}
}

// Dispatch looks up the handler case-insensitively. An unknown command
// yields a visible reply, never a silent drop. ValidationErr and
// NotFoundErr become replies; anything else returns to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd *Command) (string, error) {
	handler, ok := d.handlers[strings.ToLower(cmd.Name)]
	if !ok {
		return fmt.Sprintf("Unrecognized command %q. Send /help for the command list.", cmd.Name), nil
	}

	reply, err := handler(ctx, cmd)
	if err != nil {
		var validation *core.ValidationErr
		if errors.As(err, &validation) {
			return validation.Error(), nil
		}
		var notFound *core.NotFoundErr
		if errors.As(err, &notFound) {
			return notFound.Error(), nil
		}
		return "", err
	}
	return reply, nil
}
