// Package ratelimit implements fixed-window request counters keyed by caller.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WindowStore increments the counter of a fixed window and reports its remaining lifetime.
// The window starts on the first hit for a key and is not extended by later hits.
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most limit hits per key inside each window.
type Limiter struct {
	store  WindowStore
	limit  int
	window time.Duration
}

// NewLimiter creates a Limiter. A non-positive limit disables limiting.
func NewLimiter(store WindowStore, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records a hit for key and reports whether it fits in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	if l.store == nil {
		return Decision{}, errors.New("rate limiter store is nil")
	}
	if key == "" {
		return Decision{}, errors.New("rate limit key is required")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("increment window %q: %w", key, err)
	}
	if count > int64(l.limit) {
		if ttl <= 0 {
			ttl = l.window
		}
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - int(count)}, nil
}

// Limit returns the configured number of hits per window.
func (l *Limiter) Limit() int {
	return l.limit
}
