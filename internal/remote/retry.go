package remote

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns conservative retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     4 * time.Second,
		Multiplier:  2.0,
	}
}

// retry runs op until it succeeds, fails permanently, or attempts run out.
func retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	attempts := max(1, cfg.MaxAttempts)
	var lastErr error
	for attempt := range attempts {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Last attempt — don't sleep, just return the error.
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(cfg, attempt)):
		}
	}
	return lastErr
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// Transport errors are treated as transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	wait := float64(cfg.InitialWait) * math.Pow(cfg.Multiplier, float64(attempt))
	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Add ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
