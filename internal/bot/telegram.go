package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spesebot/internal/log"
)

const pollTimeoutSeconds = 30

// TelegramClient is the Telegram long-polling transport. The API handle is
// created on first use so a failed login is retried by the supervisor
// instead of killing the process.
type TelegramClient struct {
	token  string
	logger *log.Logger

	mu     sync.Mutex
	api    *tgbotapi.BotAPI
	offset int
}

func NewTelegramClient(token string, logger *log.Logger) *TelegramClient {
	if logger == nil {
		logger = log.Discard()
	}
	return &TelegramClient{
		token:  token,
		logger: logger.WithComponent(log.ComponentTelegram),
	}
}

func (c *TelegramClient) ensureAPI() (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api != nil {
		return c.api, nil
	}
	if c.token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(c.token)
	if err != nil {
		return nil, fmt.Errorf("login to telegram: %w", err)
	}
	c.logger.Info("Authorized on Telegram", "account", api.Self.UserName)
	c.api = api
	return api, nil
}

func (c *TelegramClient) SendText(_ context.Context, chatID int64, text string) error {
	api, err := c.ensureAPI()
	if err != nil {
		return err
	}
	if _, err := api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *TelegramClient) SendDocument(_ context.Context, chatID int64, path string) error {
	api, err := c.ensureAPI()
	if err != nil {
		return err
	}
	if _, err := api.Send(tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// Run long-polls for updates and passes every message to handle. It returns
// nil when ctx is done and the poll error otherwise. The update offset is
// kept across calls so a restarted loop does not replay messages.
func (c *TelegramClient) Run(ctx context.Context, handle func(context.Context, Message)) error {
	api, err := c.ensureAPI()
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Listening for updates")

	for {
		cfg := tgbotapi.NewUpdate(c.offset)
		cfg.Timeout = pollTimeoutSeconds

		// GetUpdates does not take a context, so wait on it from a goroutine.
		done := make(chan pollResult, 1)
		go func() {
			updates, err := api.GetUpdates(cfg)
			done <- pollResult{updates, err}
		}()

		var res pollResult
		select {
		case <-ctx.Done():
			return nil
		case res = <-done:
		}
		if res.err != nil {
			return fmt.Errorf("get updates: %w", res.err)
		}

		for _, update := range res.updates {
			if update.UpdateID >= c.offset {
				c.offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			handle(ctx, Message{ChatID: update.Message.Chat.ID, Text: update.Message.Text})
		}
	}
}
