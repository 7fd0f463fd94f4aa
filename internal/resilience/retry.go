package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryExhausted wraps the last failure after max_attempts is reached
// (spec.md §4.I, §7).
type RetryExhausted struct {
	Attempts int
	Last     error
}

func (e *RetryExhausted) Error() string {
	return fmt.Sprintf("resilience: retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhausted) Unwrap() error { return e.Last }

// RetryConfig controls backoff shape.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	ExpBase     float64
}

// Retryable, when implemented by an error, controls whether WithRetry
// continues retrying; non-retryable errors propagate immediately.
type Retryable interface {
	Retryable() bool
}

func isRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// WithRetry calls fn, retrying on retryable failures with exponential
// backoff: delay = min(base * exp_base^(attempt-1), max_delay). sleep is
// injected so tests do not wait on a real clock.
func WithRetry(ctx context.Context, cfg RetryConfig, sleep func(context.Context, time.Duration) error, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.ExpBase <= 0 {
		cfg.ExpBase = 2
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.ExpBase, float64(attempt-1)))
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return &RetryExhausted{Attempts: cfg.MaxAttempts, Last: lastErr}
}

// RealSleep sleeps for d or returns ctx.Err() if ctx is cancelled first.
func RealSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
