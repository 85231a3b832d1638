// Package ratelimit provides a wrapper around golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// Limiter throttles calls to one remote endpoint.
type Limiter struct {
	name    string
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerSecond with the given burst.
// A non-positive rate disables limiting.
func New(name string, requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		name:    name,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until a token is available. A context that expires while
// waiting yields RATE_LIMIT_EXCEEDED.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithContext(l.name),
			apperror.WithCause(err))
	}
	return nil
}

// Allow reports whether a call may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetLimit updates the rate.
func (l *Limiter) SetLimit(requestsPerSecond float64) {
	l.limiter.SetLimit(rate.Limit(requestsPerSecond))
}

// Name returns the endpoint name.
func (l *Limiter) Name() string {
	return l.name
}
