package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy parameterizes the single retry/backoff utility used for
// classification calls. The source of truth for retry behavior lives here,
// not scattered across call sites.
type RetryPolicy struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled each time
}

// retryDo invokes fn, retrying transient failures with exponential backoff
// and ±30% jitter. Context cancellation stops retrying immediately. onRetry
// is invoked once per retry, for counters.
func retryDo(ctx context.Context, policy RetryPolicy, logger *zap.SugaredLogger, onRetry func(), fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !isRetryable(err) {
		return err
	}

	lastErr := err
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		delay := backoffDelay(policy.BaseDelay, attempt)

		logger.Warnw("retrying after transient error",
			"attempt", attempt,
			"max_retries", policy.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		if onRetry != nil {
			onRetry()
		}

		err = fn(ctx)
		if err == nil || !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// backoffDelay computes baseDelay * 2^(attempt-1) with ±30% jitter.
func backoffDelay(baseDelay time.Duration, attempt int) time.Duration {
	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true for transient failures worth retrying. A timeout
// on the call's own deadline is transient; cancellation of the worker's
// context is not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
