// Package circuitbreaker stops hammering an outbound dependency that
// keeps failing. The webhook deliverer wraps its posts in one so a dead
// notification endpoint cannot slow down job processing.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	// StateClosed lets requests through.
	StateClosed State = iota
	// StateOpen rejects requests until the cooldown passes.
	StateOpen
	// StateHalfOpen lets a few trial requests through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while the breaker is cooling down.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open trial budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config shapes the breaker. Zero fields take the defaults of
// 5 failures to open, 2 successes to close, 30s cooldown, 1 trial.
type Config struct {
	Name                string
	FailureThreshold    int
	SuccessThreshold    int
	Cooldown            time.Duration
	MaxHalfOpenRequests int
	OnStateChange       func(name string, from, to State)
}

func (c *Config) applyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.MaxHalfOpenRequests <= 0 {
		c.MaxHalfOpenRequests = 1
	}
}

// CircuitBreaker counts consecutive failures and trips open once the
// threshold is hit. Every non-nil error from the wrapped call counts
// as a failure.
type CircuitBreaker struct {
	config Config

	mu              sync.Mutex
	state           State
	consecFailures  int
	consecSuccesses int
	openedAt        time.Time
	halfOpenInUse   int
}

// New creates a breaker in the closed state.
func New(cfg Config) *CircuitBreaker {
	cfg.applyDefaults()
	return &CircuitBreaker{config: cfg, state: StateClosed}
}

// Execute runs fn if the breaker allows it and records the outcome.
// When the breaker rejects the call, fn never runs and the error is
// ErrCircuitOpen or ErrTooManyRequests.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.Cooldown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.halfOpenInUse = 1
		return nil
	default: // StateHalfOpen
		if cb.halfOpenInUse >= cb.config.MaxHalfOpenRequests {
			return ErrTooManyRequests
		}
		cb.halfOpenInUse++
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Free the half-open trial slot this request consumed.
	if cb.state == StateHalfOpen && cb.halfOpenInUse > 0 {
		cb.halfOpenInUse--
	}

	if err == nil {
		cb.consecSuccesses++
		cb.consecFailures = 0
		if cb.state == StateHalfOpen && cb.consecSuccesses >= cb.config.SuccessThreshold {
			cb.transition(StateClosed)
		}
		return
	}

	cb.consecFailures++
	cb.consecSuccesses = 0
	switch cb.state {
	case StateClosed:
		if cb.consecFailures >= cb.config.FailureThreshold {
			cb.openedAt = time.Now()
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// A single failed trial re-opens the breaker.
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

// transition assumes cb.mu is held.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.consecFailures = 0
	cb.consecSuccesses = 0
	cb.halfOpenInUse = 0
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
