package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetbot/internal/amqp"
	"budgetbot/internal/bot"
	"budgetbot/internal/config"
	"budgetbot/internal/log"
	"budgetbot/internal/services"
	"budgetbot/internal/storage"
)

// consoleSender is the local stand-in for a chat platform transport:
// replies go to stdout, prefixed with the chat id.
type consoleSender struct{}

func (consoleSender) Send(_ context.Context, chatID int64, text string) error {
	_, err := fmt.Printf("[%d] %s\n", chatID, text)
	return err
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentApp})
	log.SetDefault(logger)

	logger.Info("Starting budgetbot")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", log.FieldExchange, cfg.AMQPExchange, log.FieldQueue, cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(store.UnitOfWork(), publisher)
	gateway := bot.NewGateway(ledger, consoleSender{}, cfg.CommandTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return readLoop(ctx, gateway, logger)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Shutdown with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

// readLoop consumes "<chat_id> <message>" lines from stdin until EOF or
// cancellation.
func readLoop(ctx context.Context, gateway *bot.Gateway, logger *log.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		chatPart, text, found := strings.Cut(line, " ")
		if !found {
			logger.Warn("Dropping malformed input line, want '<chat_id> <message>'")
			continue
		}
		chatID, err := strconv.ParseInt(chatPart, 10, 64)
		if err != nil {
			logger.Warn("Dropping line with bad chat id", log.FieldError, err)
			continue
		}

		if err := gateway.HandleMessage(ctx, bot.IncomingMessage{ChatID: chatID, Text: text}); err != nil {
			logger.Error("Failed to handle message", log.FieldChatID, chatID, log.FieldError, err)
		}
	}
	return scanner.Err()
}
