package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FanoutHandler hands every record to each of its sinks in order. Each sink
// formats and writes the record on its own; one failing sink does not stop
// the others.
type FanoutHandler struct {
	sinks []slog.Handler
}

func NewFanoutHandler(sinks ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{sinks: sinks}
}

// Enabled reports whether any sink wants records at level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range h.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = s.WithAttrs(attrs)
	}
	return &FanoutHandler{sinks: sinks}
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = s.WithGroup(name)
	}
	return &FanoutHandler{sinks: sinks}
}

// OpenLogFile creates dir if needed and opens a fresh log file named after
// the start time, e.g. spesebot_2024_09_18_21_04_05.log.
func OpenLogFile(dir string, started time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("spesebot_%s.log", started.Format("2006_01_02_15_04_05"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
