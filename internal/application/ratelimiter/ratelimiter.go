package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRateLimitExceeded is returned when the window's call budget is spent.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimiter caps the number of calls allowed inside a sliding time
// window. It guards the remote history service and the chain node against
// bursts of refresh calls.
type RateLimiter struct {
	mu       sync.Mutex
	maxCalls int
	window   time.Duration
	calls    []time.Time
}

func NewRateLimiter(maxCalls int, window time.Duration) *RateLimiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		maxCalls: maxCalls,
		window:   window,
		calls:    make([]time.Time, 0, maxCalls),
	}
}

// Allow records a call attempt, returning ErrRateLimitExceeded when the
// window already holds maxCalls attempts.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	kept := rl.calls[:0]
	for _, ts := range rl.calls {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rl.calls = kept

	if len(rl.calls) >= rl.maxCalls {
		return ErrRateLimitExceeded
	}

	rl.calls = append(rl.calls, now)
	return nil
}
