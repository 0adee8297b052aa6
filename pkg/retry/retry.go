// Package retry implements bounded exponential backoff for outbound
// calls that may fail transiently, notification webhooks in particular.
// Callers classify each failure as Retryable or Permanent; anything
// unclassified is treated as permanent.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryableError marks a failure worth another attempt.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error to mark it transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// PermanentError marks a failure that retrying cannot help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps an error to stop further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Config holds the backoff shape. Zero fields take the defaults of
// 3 attempts, 100ms initial delay, 30s cap, 2x growth, 10% jitter.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier < 1.0 {
		c.Multiplier = 2.0
	}
	if c.Jitter < 0 || c.Jitter > 1.0 {
		c.Jitter = 0.1
	}
}

// Retrier runs an operation until it succeeds, fails permanently, or
// runs out of attempts.
type Retrier struct {
	config Config
}

// New creates a Retrier from the given config.
func New(cfg Config) *Retrier {
	cfg.applyDefaults()
	return &Retrier{config: cfg}
}

// WebhookRetrier is tuned for outbound webhook delivery: more attempts,
// short delays, so a notification either lands quickly or is dropped.
func WebhookRetrier() *Retrier {
	return New(Config{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   1.5,
		Jitter:       0.1,
	})
}

// Do runs the operation. Retryable failures back off and retry;
// permanent and unclassified failures return immediately. The wrapper
// is stripped from the returned error either way.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			return errors.Unwrap(err)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(r.delay(attempt)):
		}
	}

	return lastErr
}

// delay is initialDelay * multiplier^(attempt-1), capped, with jitter.
func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	d = math.Min(d, float64(r.config.MaxDelay))
	if r.config.Jitter > 0 {
		d += d * r.config.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(d, 0))
}
