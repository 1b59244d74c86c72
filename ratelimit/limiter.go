// Package ratelimit bounds the outbound Exchange call rate shared by all
// concurrent tool invocations.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Error reports a failed token acquisition. It is terminal for the current
// call and never retried internally; the orchestrator may retry the whole
// tool call once the window has moved on.
type Error struct {
	Limit  int
	Window time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded: maximum %d requests per %s", e.Limit, e.Window)
}

// Limiter is a token bucket with capacity Limit, refilled linearly over
// Window. One instance is constructed at startup and injected into every
// call site; the bucket is the only state shared across concurrent callers.
type Limiter struct {
	bucket      *rate.Limiter
	limit       int
	window      time.Duration
	waitTimeout time.Duration
}

// New builds a limiter allowing limit acquisitions per window. Acquire waits
// at most waitTimeout for a token; zero means fail immediately when the
// bucket is empty.
func New(limit int, window, waitTimeout time.Duration) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		bucket:      rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), limit),
		limit:       limit,
		window:      window,
		waitTimeout: waitTimeout,
	}
}

// Acquire blocks until a token is available or the wait timeout elapses, in
// which case it fails fast with *Error. A cancellation of ctx itself is
// returned as ctx.Err so callers can distinguish a caller deadline from an
// exhausted budget.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.waitTimeout <= 0 {
		if !l.bucket.Allow() {
			return &Error{Limit: l.limit, Window: l.window}
		}
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()
	if err := l.bucket.Wait(wctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Wait refuses up front when no token can arrive before the
		// deadline. When the caller's own deadline is the binding one,
		// that is the caller timing out, not the budget running dry.
		if d, ok := ctx.Deadline(); ok && d.Before(time.Now().Add(l.waitTimeout)) {
			return context.DeadlineExceeded
		}
		return &Error{Limit: l.limit, Window: l.window}
	}
	return nil
}

// Tokens reports the currently available budget. Informational only; the
// value may be stale by the time it is read.
func (l *Limiter) Tokens() float64 { return l.bucket.Tokens() }
