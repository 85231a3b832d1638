// Package circuitbreaker wraps sony/gobreaker with app error mapping.
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// Config holds breaker settings.
type Config struct {
	Name             string
	MaxRequests      uint32        // allowed in half-open
	Interval         time.Duration // closed-state counter reset
	Timeout          time.Duration // open -> half-open
	FailureThreshold uint32        // consecutive failures to trip
	OnStateChange    func(name string, from, to gobreaker.State)
	// IsSuccessful overrides which errors count against the breaker.
	IsSuccessful func(err error) bool
}

// DefaultConfig returns settings tuned for remote data sources.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 3,
	}
}

// CircuitBreaker guards calls returning T.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}

	isSuccessful := cfg.IsSuccessful
	if isSuccessful == nil {
		// Caller cancellation says nothing about the remote side.
		isSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		}
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  isSuccessful,
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker. Rejections map to CIRCUIT_* app errors.
func (c *CircuitBreaker[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := c.cb.Execute(func() (T, error) {
		return fn(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return result, apperror.New(apperror.CodeCircuitOpen, apperror.WithContext(c.cb.Name()), apperror.WithCause(err))
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return result, apperror.New(apperror.CodeCircuitHalfOpen, apperror.WithContext(c.cb.Name()), apperror.WithCause(err))
	}
	return result, err
}

// State reports the breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}

// Name returns the breaker name.
func (c *CircuitBreaker[T]) Name() string {
	return c.cb.Name()
}
