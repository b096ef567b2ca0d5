package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Retry calls fn until it succeeds, MaxAttempts calls have failed, or ctx is
// done. Delays double after every failure, with up to 10% jitter, and are
// capped at MaxDelay.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 200 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	logger := slog.Default().With("component", "retry", "operation", name)

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}
		wait := min(delay+time.Duration(rand.Int63n(int64(delay)/10+1)), cfg.MaxDelay)
		logger.Warn("attempt failed, retrying", "attempt", attempt, "error", err, "next_delay", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w (last error: %v)", name, ctx.Err(), err)
		}
		delay *= 2
	}
}
