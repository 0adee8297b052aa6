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

type stubEvent struct {
	shared.BaseEvent
}

func newStubEvent(eventType shared.EventType, aggregateID string) stubEvent {
	return stubEvent{BaseEvent: shared.NewBaseEvent(eventType, aggregateID)}
}

func (e stubEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"aggregate_id": e.AggregateID()}
}

func TestInMemoryEventBus_PublishReachesTypeSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var fed, died atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventCreatureFed, func(shared.Event) error {
		fed.Add(1)
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventCreatureDied, func(shared.Event) error {
		died.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(newStubEvent(shared.EventCreatureFed, "creature-1")))

	assert.Equal(t, int64(1), fed.Load())
	assert.Zero(t, died.Load())
}

func TestInMemoryEventBus_SubscribeAllSeesEveryType(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var seen atomic.Int64
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		seen.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(newStubEvent(shared.EventCreatureFed, "creature-1")))
	require.NoError(t, bus.Publish(newStubEvent(shared.EventTokensGifted, "creature-2")))

	assert.Equal(t, int64(2), seen.Load())
}

func TestInMemoryEventBus_SyncModeReturnsHandlerError(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	errBroken := errors.New("broken handler")
	require.NoError(t, bus.Subscribe(shared.EventCreatureDied, func(shared.Event) error {
		return errBroken
	}))

	err := bus.Publish(newStubEvent(shared.EventCreatureDied, "creature-1"))
	assert.ErrorIs(t, err, errBroken)
}

func TestInMemoryEventBus_AsyncModeDrainsOnClose(t *testing.T) {
	config := DefaultInMemoryEventBusConfig()
	config.AsyncMode = true
	bus := NewInMemoryEventBus(config)

	var handled atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventCreatureEvolved, func(shared.Event) error {
		time.Sleep(10 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(newStubEvent(shared.EventCreatureEvolved, "creature-1")))
	require.NoError(t, bus.Close())

	assert.Equal(t, int64(1), handled.Load(), "Close returned before the async delivery finished")
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(newStubEvent(shared.EventCreatureFed, "creature-1")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCreatureFed, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close())
}

func TestInMemoryEventBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	require.NoError(t, bus.Subscribe(shared.EventCreatureDied, func(shared.Event) error {
		panic("notification template blew up")
	}))

	err := bus.Publish(newStubEvent(shared.EventCreatureDied, "creature-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}
