package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"spesebot/internal/log"
)

// DefaultRestartInterval paces restarts of a failing loop.
const DefaultRestartInterval = 5 * time.Second

var errStopped = errors.New("loop returned without error")

// Supervise runs fn until ctx is done, restarting it after every error or
// panic. Restarts are rate limited to one per interval. It only returns
// once ctx is cancelled, and then returns nil.
func Supervise(ctx context.Context, logger *log.Logger, name string, interval time.Duration, fn func(context.Context) error) error {
	if logger == nil {
		logger = log.Discard()
	}
	if interval <= 0 {
		interval = DefaultRestartInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		err := runGuarded(ctx, fn)
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "Loop stopped", log.FieldTask, name)
			return nil
		}
		if err == nil {
			err = errStopped
		}
		logger.ErrorContext(ctx, "Loop failed, restarting",
			log.FieldTask, name,
			log.FieldError, err)
	}
}

func runGuarded(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}
