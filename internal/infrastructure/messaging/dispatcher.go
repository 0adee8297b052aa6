package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes bus events to named handlers with retry and a dead
// letter queue. The hub registers two of them: the notification
// producer (creature death, evolution, milestones, inactivity) and the
// cache invalidator. A handler that keeps failing lands in the DLQ so
// a lost notification is inspectable instead of silently dropped.
type Dispatcher struct {
	eventBus shared.EventBus
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[shared.EventType][]registration

	retry       RetryConfig
	deadLetterQ *DeadLetterQueue

	ctx    context.Context
	cancel context.CancelFunc
}

type registration struct {
	name    string
	handler shared.EventHandler
	timeout time.Duration
}

// RetryConfig controls per-handler retry behavior.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the hub's retry defaults. Three attempts
// cover transient postgres hiccups; anything longer-lived belongs in
// the DLQ.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

const defaultHandlerTimeout = 30 * time.Second

// Register adds a named handler for one event type.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	if name == "" {
		return errors.New("handler name cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], registration{
		name:    name,
		handler: handler,
		timeout: defaultHandlerTimeout,
	})
	d.logger.Debug("registered handler", "event_type", eventType, "handler", name)
	return nil
}

// Start attaches the dispatcher to the bus. Concurrency comes from the
// bus (async mode on the API server); the dispatcher itself runs its
// handlers for one event in order.
func (d *Dispatcher) Start() error {
	return d.eventBus.SubscribeAll(d.dispatch)
}

// Stop cancels in-flight retries. Handlers already executing finish on
// their own timeout.
func (d *Dispatcher) Stop() error {
	d.cancel()
	d.logger.Info("dispatcher stopped")
	return nil
}

// DeadLetters returns the dead letter queue, nil when disabled.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetterQ
}

func (d *Dispatcher) dispatch(event shared.Event) error {
	d.mu.RLock()
	regs := d.handlers[event.EventType()]
	d.mu.RUnlock()

	var errs []error
	for _, reg := range regs {
		if err := d.runWithRetry(event, reg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reg.name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) runWithRetry(event shared.Event, reg registration) error {
	backoff := d.retry.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= d.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * d.retry.BackoffMultiplier)
		}

		err := d.runWithTimeout(event, reg)
		if err == nil {
			return nil
		}
		lastErr = err
		d.logger.Warn("handler attempt failed",
			"handler", reg.name,
			"event_type", event.EventType(),
			"attempt", attempt+1,
			"error", err,
		)
	}

	if d.deadLetterQ != nil {
		d.deadLetterQ.Add(DeadLetter{
			Event:    event,
			Handler:  reg.name,
			Err:      lastErr,
			Attempts: d.retry.MaxRetries + 1,
			FailedAt: time.Now(),
		})
	}
	return fmt.Errorf("failed after %d attempts: %w", d.retry.MaxRetries+1, lastErr)
}

func (d *Dispatcher) runWithTimeout(event shared.Event, reg registration) error {
	done := make(chan error, 1)
	go func() {
		done <- reg.handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(reg.timeout):
		return fmt.Errorf("handler timeout after %v", reg.timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetter is one event a handler gave up on.
type DeadLetter struct {
	Event    shared.Event
	Handler  string
	Err      error
	Attempts int
	FailedAt time.Time
}

// DeadLetterQueue is a bounded in-memory ring of failed events. At
// capacity the oldest entry is evicted.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetter
	maxSize int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, evicting the oldest at capacity.
func (q *DeadLetterQueue) Add(entry DeadLetter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the queued entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetter {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]DeadLetter, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of queued entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// DispatcherBuilder assembles a dispatcher over a bus.
type DispatcherBuilder struct {
	eventBus shared.EventBus
	logger   *slog.Logger
	retry    RetryConfig
	dlqSize  int
}

// NewDispatcherBuilder starts a builder with default retry and no DLQ.
func NewDispatcherBuilder(eventBus shared.EventBus) *DispatcherBuilder {
	return &DispatcherBuilder{
		eventBus: eventBus,
		retry:    DefaultRetryConfig(),
	}
}

// WithLogger sets the logger.
func (b *DispatcherBuilder) WithLogger(logger *slog.Logger) *DispatcherBuilder {
	b.logger = logger
	return b
}

// WithRetryConfig overrides the retry defaults.
func (b *DispatcherBuilder) WithRetryConfig(retry RetryConfig) *DispatcherBuilder {
	b.retry = retry
	return b
}

// WithDeadLetterQueue enables the DLQ with the given capacity.
func (b *DispatcherBuilder) WithDeadLetterQueue(size int) *DispatcherBuilder {
	b.dlqSize = size
	return b
}

// Build creates the dispatcher.
func (b *DispatcherBuilder) Build() *Dispatcher {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		eventBus: b.eventBus,
		logger:   logger,
		handlers: make(map[shared.EventType][]registration),
		retry:    b.retry,
		ctx:      ctx,
		cancel:   cancel,
	}
	if b.dlqSize > 0 {
		d.deadLetterQ = NewDeadLetterQueue(b.dlqSize)
	}
	return d
}
