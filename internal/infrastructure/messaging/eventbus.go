// Package messaging carries Regenmon Hub's domain events from the
// command handlers and worker jobs to their consumers: the
// notification producer, the cache invalidator and the evolution flow.
// Both processes run a single in-memory bus; events do not cross
// process boundaries, which is why the worker re-derives its state
// from postgres instead of listening to the API server.
package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ErrEventBusClosed is returned when publishing on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// InMemoryEventBusConfig configures the in-memory bus.
type InMemoryEventBusConfig struct {
	// AsyncMode delivers events on goroutines from a bounded pool.
	// The API server runs async so a slow webhook delivery never
	// holds up the HTTP response; the worker stays synchronous so
	// a job's events are fully handled before the job reports done.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent deliveries in async mode.
	WorkerPoolSize int

	// Logger for delivery failures and recovered panics.
	Logger *slog.Logger
}

// DefaultInMemoryEventBusConfig returns synchronous defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      false,
		WorkerPoolSize: 10,
	}
}

// InMemoryEventBus implements shared.EventBus with in-process fan-out.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	closed      bool

	asyncMode bool
	pool      chan struct{}
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// NewInMemoryEventBus creates a bus from config.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &InMemoryEventBus{
		handlers:  make(map[shared.EventType][]shared.EventHandler),
		asyncMode: config.AsyncMode,
		pool:      make(chan struct{}, config.WorkerPoolSize),
		logger:    config.Logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for every event. The dispatcher
// attaches itself this way and does its own per-type routing.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish fans the event out to type subscribers and catch-all
// subscribers. In sync mode the first handler error is returned; in
// async mode errors are logged and Publish returns immediately.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	if b.asyncMode {
		for _, h := range handlers {
			b.wg.Add(1)
			b.pool <- struct{}{}
			go func(h shared.EventHandler) {
				defer b.wg.Done()
				defer func() { <-b.pool }()
				if err := b.deliver(h, event); err != nil {
					b.logger.Error("event handler failed",
						"event_type", event.EventType(),
						"aggregate_id", event.AggregateID(),
						"error", err,
					)
				}
			}(h)
		}
		return nil
	}

	for _, h := range handlers {
		if err := b.deliver(h, event); err != nil {
			return err
		}
	}
	return nil
}

// deliver runs one handler with panic recovery. A panicking
// notification handler must not take the publishing command down.
func (b *InMemoryEventBus) deliver(handler shared.EventHandler, event shared.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				"event_type", event.EventType(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(event)
}

// Close stops accepting publishes and waits for in-flight async
// deliveries to drain.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
