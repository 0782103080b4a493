// Package retry is the single retry primitive for the orchestrator: a fixed
// attempt count with a fixed delay between attempts. No backoff, no jitter.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy is a fixed attempt budget with a fixed inter-attempt delay.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn up to p.Attempts times, sleeping p.Delay between attempts.
// It returns fn's result from the first successful attempt, or the last
// error wrapped with op after the budget is exhausted. Context cancellation
// aborts between attempts.
func Do[T any](ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("attempt", "op", op, "attempt", attempt, "max", attempts)

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		logger.Error("attempt failed", "op", op, "attempt", attempt, "error", err)

		if attempt < attempts {
			logger.Info("retrying", "op", op, "delay", p.Delay)
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return zero, fmt.Errorf("%s: %w", op, ctx.Err())
			}
		}
	}
	return zero, fmt.Errorf("%s: all %d attempts failed: %w", op, attempts, lastErr)
}

// Run is Do for operations with no payload.
func Run(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, logger, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
