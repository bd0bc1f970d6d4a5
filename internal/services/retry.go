package services

import (
	"context"
	"fmt"
	"time"
)

// withRetry runs op up to maxAttempts times with exponential backoff
// (initialDelay, 2x per attempt). It is the single retry point for every
// external call in the pipeline so failure semantics stay uniform across
// components. Context cancellation aborts both the operation and the backoff
// sleep.
func withRetry[T any](ctx context.Context, maxAttempts int, initialDelay time.Duration, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("context cancelled: %w", err)
		}

		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
