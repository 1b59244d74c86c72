package ews

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// TokenSource grants admission for one outbound call. *ratelimit.Limiter is
// the production implementation.
type TokenSource interface {
	Acquire(ctx context.Context) error
}

// RetryPolicy configures the retry controller.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the Exchange throttling guidance: a few attempts
// with capped exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}
}

func (p *RetryPolicy) applyDefaults() {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
}

// Executor issues one logical backend call, composing admission control and
// retry. Every remote call in this module goes through Do.
type Executor struct {
	limiter TokenSource
	policy  RetryPolicy

	// sleep is swapped for a fake in tests.
	sleep func(ctx context.Context, d time.Duration) error
	// jitter perturbs a backoff delay by up to ±50%.
	jitter func(d time.Duration) time.Duration
}

// NewExecutor builds an executor around the given limiter and policy.
func NewExecutor(limiter TokenSource, policy RetryPolicy) *Executor {
	policy.applyDefaults()
	return &Executor{
		limiter: limiter,
		policy:  policy,
		sleep:   sleepCtx,
		jitter:  jitterHalf,
	}
}

// Do runs fn, retrying retryable failures with capped exponential backoff.
// Each attempt re-acquires a limiter token, so retries never bypass the
// budget. Rate-limit rejections and fatal failures are surfaced immediately;
// exhausting the attempt budget surfaces a *TransientError carrying the
// attempt count. An expired ctx deadline surfaces *TimeoutError.
func (e *Executor) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	delay := e.policy.BaseDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := e.limiter.Acquire(ctx); err != nil {
			if ctx.Err() != nil {
				return &TimeoutError{Op: op, Err: ctx.Err()}
			}
			// *ratelimit.Error: terminal for this call, never retried here.
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		var timeout *TimeoutError
		if errors.As(err, &timeout) {
			return err
		}
		if ctx.Err() != nil {
			return &TimeoutError{Op: op, Err: ctx.Err()}
		}
		if !Retryable(err) {
			return err
		}

		lastErr = err
		if attempt >= e.policy.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, e.jitter(delay)); err != nil {
			return &TimeoutError{Op: op, Err: err}
		}
		delay *= 2
		if delay > e.policy.MaxDelay {
			delay = e.policy.MaxDelay
		}
	}
	return &TransientError{Op: op, Attempts: e.policy.MaxAttempts, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func jitterHalf(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// uniform in [d/2, 3d/2)
	return d/2 + time.Duration(rand.Int63n(int64(d)))
}
