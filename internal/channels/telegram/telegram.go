// Package telegram delivers reminders over the Telegram Bot API using
// the Telego library.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mymmrac/telego"

	"github.com/CafeDonggua/c-dong-bot/internal/config"
	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/retry"
)

const sendTimeout = 10 * time.Second

// botAPI is the slice of the Telego bot the deliverer needs.
type botAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Deliverer sends reminder texts to Telegram chats.
type Deliverer struct {
	cfg    config.TelegramConfig
	logger *logger.Logger
	bot    botAPI
}

// New creates a deliverer with a real Telego bot behind it.
func New(cfg config.TelegramConfig, log *logger.Logger) (*Deliverer, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Deliverer{cfg: cfg, logger: log, bot: bot}, nil
}

// newWithBot is used by tests to inject a fake bot.
func newWithBot(cfg config.TelegramConfig, log *logger.Logger, bot botAPI) *Deliverer {
	return &Deliverer{cfg: cfg, logger: log, bot: bot}
}

func (d *Deliverer) Name() string { return "telegram" }

// Deliver sends text to the chat, retrying transient API failures with
// backoff. The returned error is final for this delivery attempt.
func (d *Deliverer) Deliver(ctx context.Context, chatID, text string) error {
	numericID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: numericID},
		Text:   text,
	}

	err = retry.Do(ctx, func() error {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		_, sendErr := d.bot.SendMessage(sendCtx, params)
		return sendErr
	}, retry.Config{MaxAttempts: d.cfg.RetryAttempts})
	if err != nil {
		d.logger.Error("telegram delivery failed", err,
			logger.Field{Key: "chat_id", Value: chatID})
		return err
	}
	return nil
}
