// Package ratelimit paces probe sends so a round does not congest the local
// uplink and skew its own latency measurements.
package ratelimit

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// jitterFactor spreads waits by ±20% so paced probes do not fire in lockstep.
const jitterFactor = 0.20

// ErrBurstExceeded is returned when a reservation can never be satisfied.
var ErrBurstExceeded = errors.New("rate limiter burst exceeded")

// Limiter wraps a token-bucket rate limiter and adds jitter to wait intervals.
// A nil *Limiter never waits.
type Limiter struct {
	inner *rate.Limiter
}

// New creates a Limiter allowing rps probe sends per second with the given
// burst. rps <= 0 disables pacing and returns nil.
func New(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return nil
	}
	return &Limiter{inner: rate.NewLimiter(rate.Limit(rps), max(1, burst))}
}

// Wait blocks until a send token is available, or returns ctx.Err() if ctx is
// done first. The wait duration carries ±20% jitter.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	res := l.inner.Reserve()
	if !res.OK() {
		return ErrBurstExceeded
	}

	delay := res.Delay()
	if delay <= 0 {
		return ctx.Err()
	}

	jitter := time.Duration(float64(delay) * jitterFactor * (rand.Float64()*2 - 1)) //nolint:gosec // non-cryptographic random is fine for jitter
	delay = max(0, delay+jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
