package mailer

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing messages with a token bucket.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter allowing messagesPerSecond with the given burst.
// A non-positive rate returns nil, which disables pacing.
//
// Example:
//
//	limiter := NewRateLimiter(1.0, 1) // one message per second
func NewRateLimiter(messagesPerSecond float64, burst int) *RateLimiter {
	if messagesPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burst)}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
