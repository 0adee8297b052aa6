package messaging

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		BackoffMultiplier: 1.0,
	}
}

func newTestDispatcher(t *testing.T, bus shared.EventBus) *Dispatcher {
	t.Helper()
	d := NewDispatcherBuilder(bus).
		WithRetryConfig(fastRetry()).
		WithDeadLetterQueue(10).
		Build()
	require.NoError(t, d.Start())
	t.Cleanup(func() { _ = d.Stop() })
	return d
}

func TestDispatcher_RoutesEventsToRegisteredHandler(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	d := newTestDispatcher(t, bus)

	var handled atomic.Int64
	require.NoError(t, d.Register(shared.EventCreatureDied, "notification_producer", func(shared.Event) error {
		handled.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(newStubEvent(shared.EventCreatureDied, "creature-1")))
	require.NoError(t, bus.Publish(newStubEvent(shared.EventCreatureFed, "creature-1")))

	assert.Equal(t, int64(1), handled.Load())
}

func TestDispatcher_RegisterValidation(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	d := NewDispatcherBuilder(bus).Build()

	assert.Error(t, d.Register(shared.EventCreatureFed, "producer", nil))
	assert.Error(t, d.Register(shared.EventCreatureFed, "", func(shared.Event) error { return nil }))
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	d := newTestDispatcher(t, bus)

	var attempts atomic.Int64
	require.NoError(t, d.Register(shared.EventCreatureEvolved, "cache_invalidator", func(shared.Event) error {
		if attempts.Add(1) < 3 {
			return errors.New("redis briefly unreachable")
		}
		return nil
	}))

	require.NoError(t, bus.Publish(newStubEvent(shared.EventCreatureEvolved, "creature-1")))

	assert.Equal(t, int64(3), attempts.Load())
	assert.Zero(t, d.DeadLetters().Size())
}

func TestDispatcher_ExhaustedRetriesLandInDeadLetterQueue(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	d := newTestDispatcher(t, bus)

	errDown := errors.New("postgres down")
	require.NoError(t, d.Register(shared.EventCreatureDied, "notification_producer", func(shared.Event) error {
		return errDown
	}))

	err := bus.Publish(newStubEvent(shared.EventCreatureDied, "creature-1"))
	require.Error(t, err)

	entries := d.DeadLetters().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "notification_producer", entries[0].Handler)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.ErrorIs(t, entries[0].Err, errDown)
	assert.Equal(t, shared.EventCreatureDied, entries[0].Event.EventType())
}

func TestDeadLetterQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := NewDeadLetterQueue(2)
	q.Add(DeadLetter{Handler: "a"})
	q.Add(DeadLetter{Handler: "b"})
	q.Add(DeadLetter{Handler: "c"})

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Handler)
	assert.Equal(t, "c", entries[1].Handler)
}
