// Package circuitbreaker provides circuit breaker implementations for external service calls.
// It uses the github.com/sony/gobreaker library to stop hammering a dependency that keeps failing.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"feedmail/internal/observability/logging"
)

// ErrOpenState is returned by Run while the circuit is open.
var ErrOpenState = gobreaker.ErrOpenState

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear failure counts.
	// Zero keeps counts for the lifetime of the breaker.
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// ConsecutiveFailures trips the circuit after this many failures in a row.
	ConsecutiveFailures uint32

	// Logger receives state change messages. Defaults to a discard logger.
	Logger *slog.Logger
}

// MailDeliveryConfig returns configuration for SMTP delivery within one run.
// A run is short-lived, so counts are never cleared and an open circuit stays
// open long enough to cover the rest of the run.
func MailDeliveryConfig(threshold uint32) Config {
	return Config{
		Name:                "smtp",
		MaxRequests:         1,
		Interval:            0,
		Timeout:             10 * time.Minute,
		ConsecutiveFailures: threshold,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

// New creates a new circuit breaker with the given configuration.
// A zero ConsecutiveFailures trips on the first failure.
func New(cfg Config) *CircuitBreaker {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= max(cfg.ConsecutiveFailures, 1)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Run executes fn through the circuit breaker.
// If the circuit is open, it returns ErrOpenState without calling fn.
func (cb *CircuitBreaker) Run(fn func() error) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
