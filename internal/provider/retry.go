package provider

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig holds retry settings for API requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BackoffBase is the wait before the first retry.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the wait on each further retry.
	BackoffMultiplier float64

	// MaxBackoff caps a single wait.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry settings used by sitechat.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        20 * time.Second,
	}
}

// Retry calls fn until it succeeds, returns an error that is not transient,
// or MaxAttempts is reached. The last error is returned.
func Retry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func(context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		wait := cfg.backoff(attempt)
		logger.Debug("request failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// backoff returns the wait after attempt, with +/-25% jitter.
func (c RetryConfig) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	wait := time.Duration(float64(c.BackoffBase) * multiplier)
	if c.MaxBackoff > 0 && wait > c.MaxBackoff {
		wait = c.MaxBackoff
	}

	jitter := float64(wait) * 0.25 * (rand.Float64()*2 - 1) //nolint:gosec // jitter only
	return wait + time.Duration(jitter)
}
