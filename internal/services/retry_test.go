package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := withRetry(context.Background(), 3, time.Millisecond, func() (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RecoversAfterFailures(t *testing.T) {
	calls := 0
	got, err := withRetry(context.Background(), 3, time.Millisecond, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), 3, time.Millisecond, func() (int, error) {
		calls++
		return 0, errors.New("permanent")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.ErrorContains(t, err, "permanent")
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := withRetry(ctx, 3, time.Millisecond, func() (int, error) {
		calls++
		return 0, errors.New("should not matter")
	})

	require.Error(t, err)
	assert.Zero(t, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetry_TreatsNonPositiveAttemptsAsOne(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), 0, time.Millisecond, func() (int, error) {
		calls++
		return 0, errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
