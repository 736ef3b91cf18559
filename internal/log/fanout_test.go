package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFanoutHandler_WritesToEverySink(t *testing.T) {
	var a, b bytes.Buffer
	h := NewFanoutHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := New(Config{Component: ComponentBot, Handler: h})

	logger.Info("Sent message", FieldChatID, int64(42))

	if !strings.Contains(a.String(), "msg=\"Sent message\"") || !strings.Contains(a.String(), "component=bot") {
		t.Errorf("text sink missing record: %q", a.String())
	}
	if !strings.Contains(b.String(), `"msg":"Sent message"`) || !strings.Contains(b.String(), `"chat_id":42`) {
		t.Errorf("json sink missing record: %q", b.String())
	}
}

func TestFanoutHandler_RespectsSinkLevels(t *testing.T) {
	var debug, errOnly bytes.Buffer
	h := NewFanoutHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("fanout should be enabled when any sink is")
	}

	logger := New(Config{Handler: h})
	logger.Debug("checking connection")

	if debug.Len() == 0 {
		t.Error("debug sink should have the record")
	}
	if errOnly.Len() != 0 {
		t.Errorf("error sink should be empty, got %q", errOnly.String())
	}
}

func TestFanoutHandler_WithAttrsAndGroup(t *testing.T) {
	var a, b bytes.Buffer
	h := NewFanoutHandler(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))

	logger := slog.New(h).With("run", 7).WithGroup("req")
	logger.Info("handled", "cmd", "/help")

	for i, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, "run=7") || !strings.Contains(out, "req.cmd=/help") {
			t.Errorf("sink %d = %q", i, out)
		}
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanoutHandler_OneSinkFailing(t *testing.T) {
	var good bytes.Buffer
	h := NewFanoutHandler(
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&good, nil),
	)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	err := h.Handle(context.Background(), r)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Handle error = %v, want disk full", err)
	}
	if !strings.Contains(good.String(), "hello") {
		t.Error("healthy sink should still receive the record")
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	started := time.Date(2024, 9, 18, 21, 4, 5, 0, time.UTC)

	f, err := OpenLogFile(dir, started)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	defer f.Close()

	want := filepath.Join(dir, "spesebot_2024_09_18_21_04_05.log")
	if f.Name() != want {
		t.Errorf("file = %s, want %s", f.Name(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
