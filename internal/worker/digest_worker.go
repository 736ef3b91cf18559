package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"spesebot/internal/core"
	"spesebot/internal/log"
)

// Reporter produces the budget reports included in the digest.
type Reporter interface {
	CheckDailyBudget(ctx context.Context) (core.BudgetReport, error)
	CheckWeeklyBudget(ctx context.Context) (core.BudgetReport, error)
}

// TextSender delivers the digest to a chat.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// DigestWorker sends the daily and weekly budget status to the allowed chat
// on a cron schedule.
type DigestWorker struct {
	reporter Reporter
	sender   TextSender
	chatID   int64
	location *time.Location
	logger   *log.Logger
}

func NewDigestWorker(reporter Reporter, sender TextSender, chatID int64, loc *time.Location, logger *log.Logger) *DigestWorker {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &DigestWorker{
		reporter: reporter,
		sender:   sender,
		chatID:   chatID,
		location: loc,
		logger:   logger.WithComponent(log.ComponentScheduler),
	}
}

// SendDigest builds and sends one digest message.
func (w *DigestWorker) SendDigest(ctx context.Context) error {
	daily, err := w.reporter.CheckDailyBudget(ctx)
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}
	weekly, err := w.reporter.CheckWeeklyBudget(ctx)
	if err != nil {
		return fmt.Errorf("weekly report: %w", err)
	}

	var b strings.Builder
	b.WriteString("Budget digest\n\n")
	b.WriteString(daily.String())
	b.WriteString("\n\n")
	b.WriteString(weekly.String())

	if err := w.sender.SendText(ctx, w.chatID, b.String()); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	w.logger.InfoContext(ctx, "Sent budget digest", log.FieldChatID, w.chatID)
	return nil
}

// Run schedules the digest and blocks until ctx is done. An empty schedule
// disables the worker.
func (w *DigestWorker) Run(ctx context.Context, schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		w.logger.InfoContext(ctx, "Digest disabled")
		return nil
	}

	c := cron.New(cron.WithLocation(w.location))
	_, err := c.AddFunc(schedule, func() {
		if err := w.SendDigest(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "Failed to send budget digest", log.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}

	c.Start()
	w.logger.InfoContext(ctx, "Digest scheduled", "schedule", schedule, "timezone", w.location.String())

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("Digest stopped")
	return nil
}
