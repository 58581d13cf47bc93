package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDoWithResult(t *testing.T) {
	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		var calls int
		cfg := retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.LineareBackoff(time.Millisecond),
		}
		v, err := retry.DoWithResult(t.Context(), cfg, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errTemporary
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("NonRetryableError", func(t *testing.T) {
		var calls int
		errFatal := errors.New("fatal")
		cfg := retry.RetryConfig{
			MaxAttempts: 5,
			Backoff:     retry.LineareBackoff(time.Millisecond),
			ShouldRetry: func(err error) bool { return errors.Is(err, errTemporary) },
		}
		_, err := retry.DoWithResult(t.Context(), cfg, func() (int, error) {
			calls++
			return 1, errFatal
		})
		require.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("AttemptsExhausted", func(t *testing.T) {
		var calls int
		cfg := retry.RetryConfig{
			MaxAttempts: 2,
			Backoff:     retry.LineareBackoff(time.Millisecond),
		}
		err := retry.Do(t.Context(), cfg, func() error {
			calls++
			return errTemporary
		})
		require.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 2, calls)
	})

	t.Run("ContextDone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cfg := retry.RetryConfig{
			MaxAttempts: 5,
			Backoff:     retry.LineareBackoff(time.Hour),
		}
		err := retry.Do(ctx, cfg, func() error {
			cancel()
			return errTemporary
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, errTemporary)
	})
}

func TestExponentialBackoff(t *testing.T) {
	backoff := retry.ExponentialBackoff(10 * time.Millisecond)
	for attempt := 1; attempt <= 4; attempt++ {
		base := time.Duration(1<<attempt) * 10 * time.Millisecond
		d := backoff(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2+1)
	}
}
