package ai

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"cvmatch/internal/errors"
)

const maxBackoff = 30 * time.Second

// RetryPolicy configures Retry
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *errors.Logger
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or the
// retries are used up. Only generic upstream failures and provider throttling
// are retried; local quota, validation and credential errors are returned at once.
func Retry[T any](ctx context.Context, policy RetryPolicy, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(policy.BaseDelay, attempt)
			if policy.Logger != nil {
				policy.Logger.Warn("Retrying AI operation",
					"operation", operation,
					"attempt", attempt,
					"max_retries", policy.MaxRetries,
					"backoff", backoff,
					"error", lastErr.Error())
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 && policy.Logger != nil {
				policy.Logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return zero, lastErr
}

// IsRetryable reports whether a failed call may succeed when repeated
func IsRetryable(err error) bool {
	return errors.IsType(err, errors.ErrorTypeUpstream) || errors.IsType(err, errors.ErrorTypeUpstreamRateLimit)
}

// backoffFor doubles base per attempt and adds up to 10% jitter, capped at maxBackoff
func backoffFor(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * base
	if delay <= 0 || delay > maxBackoff {
		delay = maxBackoff
	}
	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, maxBackoff)
}
