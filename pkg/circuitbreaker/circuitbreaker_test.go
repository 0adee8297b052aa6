package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("endpoint down")

func failing(ctx context.Context) error { return errDown }
func succeeding(ctx context.Context) error { return nil }

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3, Cooldown: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, failing), errDown)
	}
	require.Equal(t, StateOpen, cb.State())

	// now short-circuits without calling fn
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 2, Cooldown: time.Hour})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, succeeding)
	_ = cb.Execute(ctx, failing)

	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenRecovery(t *testing.T) {
	cb := New(Config{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Cooldown:         time.Millisecond,
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	// first trial moves to half-open
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())

	// second success closes
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, Cooldown: time.Millisecond})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	time.Sleep(5 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(ctx, failing), errDown)
	assert.Equal(t, StateOpen, cb.State())
}

func TestExecute_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New(Config{
		Name:             "notify_webhook",
		FailureThreshold: 1,
		Cooldown:         time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), failing)

	assert.Equal(t, []string{"closed>open"}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
