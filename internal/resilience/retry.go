// Package resilience provides fault tolerance patterns
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Retry configuration constants
const (
	DefaultAttempts     = 3
	DefaultBackoff      = time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 1.0 // fixed backoff
	DefaultJitterFactor = 0.0
)

// ErrExhausted is wrapped into the error returned when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// RetryConfig holds retry settings.
type RetryConfig struct {
	Attempts     int           // total tries including the first
	Backoff      time.Duration // wait after the first failure
	Multiplier   float64       // growth per failure; 1 keeps the wait fixed
	MaxDelay     time.Duration
	JitterFactor float64
	IsRetryable  func(error) bool
	// OnRetry runs before each wait with the 1-based attempt that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig returns the toggle policy: 3 attempts, 1s apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     DefaultAttempts,
		Backoff:      DefaultBackoff,
		Multiplier:   DefaultMultiplier,
		MaxDelay:     DefaultMaxDelay,
		JitterFactor: DefaultJitterFactor,
	}
}

// Always retries every non-nil error.
func Always(err error) bool { return err != nil }

// Retry runs fn until it succeeds, returns a non-retryable error, or runs out of attempts.
// Waits happen only between attempts.
func Retry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	cfg = cfg.withDefaults()
	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}

		if !cfg.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.Attempts {
			break
		}

		delay := backoffDelay(cfg, attempt-1)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, delay)
		}
		slog.Debug("retrying after error", "attempt", attempt, "max", cfg.Attempts, "delay", delay, "error", lastErr)

		if err := cfg.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.Attempts, lastErr)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay grows Backoff by Multiplier per failure, capped and jittered.
func backoffDelay(cfg RetryConfig, failures int) time.Duration {
	delay := float64(cfg.Backoff)
	for i := 0; i < min(failures, 16); i++ {
		delay *= cfg.Multiplier
	}
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	// delay * (1 +/- jitterFactor/2)
	jitter := delay * cfg.JitterFactor * (rand.Float64() - 0.5)
	return time.Duration(delay + jitter)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	if c.Multiplier < 1 {
		c.Multiplier = DefaultMultiplier
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.IsRetryable == nil {
		c.IsRetryable = Always
	}
	if c.Sleep == nil {
		c.Sleep = SleepContext
	}
	return c
}
