package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

func TestRetryPolicy_SucceedsOnFirstAttempt(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{Name: "storage", MaxAttempts: 3, InitialDelay: time.Millisecond})
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_RetriesRetryableErrors(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{Name: "cdn", MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errs.New(errs.Unavailable, "try again")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_StopsOnNonRetryableError(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{Name: "storage", MaxAttempts: 5, InitialDelay: time.Millisecond})
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.New(errs.InvalidArgument, "bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable errors must not be retried")
}

func TestRetryPolicy_ExhaustsMaxAttempts(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{Name: "storage", MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.New(errs.Timeout, "slow upstream")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_HonorsContextCancellation(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{Name: "storage", MaxAttempts: 5, InitialDelay: 50 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		return errs.New(errs.Unavailable, "down")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJitter_StaysWithinBounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		got := jitter(d, 0.2)
		assert.GreaterOrEqual(t, got, 80*time.Millisecond)
		assert.LessOrEqual(t, got, 120*time.Millisecond)
	}
}

func TestRetryable_UnclassifiedErrorIsRetried(t *testing.T) {
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.False(t, Retryable(nil))
}
