// Package ratelimit defines the port for counting actions per key over time.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most limit actions per key within each window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Unlimited admits everything. It stands in when no backing store is configured.
type Unlimited struct{}

// Allow always admits.
func (Unlimited) Allow(context.Context, string, int, time.Duration) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}

// Refunder is implemented by limiters that can return a unit spent on an
// action that did not happen.
type Refunder interface {
	Refund(ctx context.Context, key string, window time.Duration) error
}
