package llm

import (
	"context"
	"math/rand"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
)

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Err         error
}

// RetryPolicy is a bounded exponential backoff with up to one second of jitter.
// Zero fields take their defaults.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      func() time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
	OnRetry     func(RetryEvent)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{}.withDefaults()
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Jitter == nil {
		p.Jitter = uniformJitter
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	if p.OnRetry == nil {
		p.OnRetry = func(RetryEvent) {}
	}
	return p
}

// Backoff returns the delay before attempt k (1-indexed). There is no delay before the first attempt.
func (p RetryPolicy) Backoff(k int) time.Duration {
	if k < 2 {
		return 0
	}
	p = p.withDefaults()
	return p.BaseDelay<<(k-2) + p.Jitter()
}

// WithRetry runs op until it succeeds, fails with a non-transient error, or
// MaxAttempts transient failures have been seen. Fatal errors are returned
// unchanged; exhaustion returns a *RetryError wrapping the last failure.
func WithRetry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.Backoff(attempt)
			p.OnRetry(RetryEvent{
				Attempt:     attempt - 1,
				MaxAttempts: p.MaxAttempts,
				Delay:       delay,
				Err:         lastErr,
			})
			if err := p.Sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, &RetryError{Attempts: p.MaxAttempts, Err: lastErr}
}

func uniformJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(time.Second)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
