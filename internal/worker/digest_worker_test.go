package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spesebot/internal/core"
)

type fakeReporter struct {
	err error
}

func (f fakeReporter) CheckDailyBudget(context.Context) (core.BudgetReport, error) {
	if f.err != nil {
		return core.BudgetReport{}, f.err
	}
	return core.BudgetReport{
		Period: core.Daily,
		Spent:  core.MustParseAmount("10"),
		Budget: core.Daily.Allowance(core.DefaultBudget),
	}, nil
}

func (f fakeReporter) CheckWeeklyBudget(context.Context) (core.BudgetReport, error) {
	return core.BudgetReport{
		Period: core.Weekly,
		Spent:  core.MustParseAmount("400"),
		Budget: core.Weekly.Allowance(core.DefaultBudget),
	}, nil
}

type captureSender struct {
	chatID int64
	texts  []string
}

func (c *captureSender) SendText(_ context.Context, chatID int64, text string) error {
	c.chatID = chatID
	c.texts = append(c.texts, text)
	return nil
}

func TestDigestWorker_SendDigest(t *testing.T) {
	sender := &captureSender{}
	w := NewDigestWorker(fakeReporter{}, sender, 99, time.UTC, nil)

	if err := w.SendDigest(context.Background()); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}

	if sender.chatID != 99 || len(sender.texts) != 1 {
		t.Fatalf("sent %v to %d", sender.texts, sender.chatID)
	}
	text := sender.texts[0]
	for _, want := range []string{
		"✅ Underspent today by 33.33",
		"🚨❌ Overspent this week by 96.67",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("digest %q should contain %q", text, want)
		}
	}
}

func TestDigestWorker_ReportError(t *testing.T) {
	sender := &captureSender{}
	w := NewDigestWorker(fakeReporter{err: errors.New("db down")}, sender, 99, nil, nil)

	if err := w.SendDigest(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(sender.texts) != 0 {
		t.Error("nothing should be sent when a report fails")
	}
}

func TestDigestWorker_Run(t *testing.T) {
	w := NewDigestWorker(fakeReporter{}, &captureSender{}, 1, time.UTC, nil)

	t.Run("empty schedule disables", func(t *testing.T) {
		if err := w.Run(context.Background(), ""); err != nil {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("invalid schedule", func(t *testing.T) {
		if err := w.Run(context.Background(), "not a cron"); err == nil {
			t.Error("expected error for invalid schedule")
		}
	})

	t.Run("stops with context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := w.Run(ctx, "0 20 * * *"); err != nil {
			t.Errorf("err = %v", err)
		}
	})
}
