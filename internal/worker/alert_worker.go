// Package worker reacts to operation events with budget overrun alerts.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbot/internal/amqp"
	"budgetbot/internal/core"
)

// MessageSender delivers alerts back to the chat. Same contract as the
// gateway's outbound side.
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// AlertWorker checks each recorded expense against the month's planned
// budget and alerts the user when spending went past it.
type AlertWorker struct {
	uow    core.UnitOfWork
	sender MessageSender
}

func NewAlertWorker(uow core.UnitOfWork, sender MessageSender) *AlertWorker {
	return &AlertWorker{uow: uow, sender: sender}
}

// HandleOperationRecorded processes a single operation recorded event.
// Income operations and months without a budget are skipped. Errors
// propagate so the delivery gets requeued.
func (w *AlertWorker) HandleOperationRecorded(ctx context.Context, msg *amqp.OperationRecordedMessage) error {
	if msg.Type != string(core.Expense) {
		return nil
	}

	period := core.YearMonth{Year: msg.Year, Month: msg.Month}
	if err := period.Validate(); err != nil {
		slog.WarnContext(ctx, "Skipping event with invalid period",
			"operation_id", msg.OperationID, "year", msg.Year, "month", msg.Month)
		return nil
	}

	budget, ok, err := w.uow.Budgets().Get(ctx, msg.UserID, period)
	if err != nil {
		return fmt.Errorf("get budget: %w", err)
	}
	if !ok {
		return nil
	}

	expenses, err := w.uow.Operations().SumByCategoryForPeriod(ctx, msg.UserID, period, core.Expense)
	if err != nil {
		return fmt.Errorf("sum expenses: %w", err)
	}

	var spent core.Money
	for _, amount := range expenses {
		spent = spent.Add(amount)
	}

	status := core.BudgetStatus{Period: period, Planned: budget.Planned, Spent: spent}
	if !status.Exceeded() {
		return nil
	}

	alert := fmt.Sprintf("Budget alert for %s: planned %s, spent %s (over by %s)",
		period, status.Planned.String(), status.Spent.String(),
		core.Money{Cents: -status.Remaining().Cents}.String())

	if err := w.sender.Send(ctx, msg.ChatID, alert); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}

	slog.InfoContext(ctx, "Sent budget overrun alert",
		"user_id", msg.UserID,
		"chat_id", msg.ChatID,
		"period", period.String(),
		"spent_cents", spent.Cents)

	return nil
}
