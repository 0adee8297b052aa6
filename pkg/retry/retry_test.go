package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   1.0,
		Jitter:       0,
	})
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("endpoint returned 503"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentFailureStopsImmediately(t *testing.T) {
	calls := 0
	base := errors.New("endpoint returned 400")
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(base)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, base, err, "wrapper must be stripped")
}

func TestDo_UnclassifiedErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("plain failure")
	})

	assert.Equal(t, 1, calls)
	assert.EqualError(t, err, "plain failure")
}

func TestDo_ExhaustedAttemptsReturnUnwrapped(t *testing.T) {
	calls := 0
	base := errors.New("still down")
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(base)
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, base, err)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fastRetrier(3).Do(ctx, func(ctx context.Context) error {
		t.Fatal("operation must not run on a dead context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_GrowsAndCaps(t *testing.T) {
	r := New(Config{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     300 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       0,
	})

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 200*time.Millisecond, r.delay(2))
	assert.Equal(t, 300*time.Millisecond, r.delay(3), "capped at MaxDelay")
	assert.Equal(t, 300*time.Millisecond, r.delay(4))
}

func TestClassificationPredicates(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("x")))
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
	assert.False(t, IsPermanent(Retryable(errors.New("x"))))
	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}
