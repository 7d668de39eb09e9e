package bot

import (
	"context"
	"strings"
	"time"

	"budgetbot/internal/log"
	"budgetbot/internal/services"
)

const genericErrorReply = "Something went wrong, please try again."

// IncomingMessage is one raw chat message as delivered by the platform
// transport.
type IncomingMessage struct {
	ChatID int64
	Text   string
}

// MessageSender delivers outbound replies. The platform transport
// implements it; tests substitute a fake.
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Gateway is the single entry point for chat traffic: it resolves the
// user, parses the command and dispatches it under a per-command
// timeout. Storage failures degrade to a generic reply, never a crash.
type Gateway struct {
	ledger     *services.LedgerService
	dispatcher *Dispatcher
	sender     MessageSender
	timeout    time.Duration
	logger     *log.Logger
}

func NewGateway(ledger *services.LedgerService, sender MessageSender, timeout time.Duration, logger *log.Logger) *Gateway {
	return &Gateway{
		ledger:     ledger,
		dispatcher: NewDispatcher(ledger),
		sender:     sender,
		timeout:    timeout,
		logger:     logger.WithComponent(log.ComponentGateway),
	}
}

func (g *Gateway) HandleMessage(ctx context.Context, msg IncomingMessage) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	user, err := g.ledger.EnsureUser(ctx, msg.ChatID)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to resolve user",
			log.FieldChatID, msg.ChatID, log.FieldError, err)
		return g.sender.Send(ctx, msg.ChatID, genericErrorReply)
	}

	name, args := parseCommand(msg.Text)
	cmd := &Command{User: user, Name: name, Args: args}

	reply, err := g.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		g.logger.ErrorContext(ctx, "command failed",
			log.FieldChatID, msg.ChatID,
			log.FieldCommand, name,
			log.FieldError, err)
		reply = genericErrorReply
	} else {
		g.logger.InfoContext(ctx, "command handled",
			log.FieldChatID, msg.ChatID,
			log.FieldCommand, name)
	}

	return g.sender.Send(ctx, msg.ChatID, reply)
}

// parseCommand splits "/name arg arg" into a lower-cased name and its
// arguments. A "@botname" suffix on the command is dropped.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}
