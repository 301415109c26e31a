package ai

import (
	stderrors "errors"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"cvmatch/internal/config"
	"cvmatch/internal/errors"
)

// Breaker guards calls returning T. A nil Breaker runs calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// BreakerStats is the state reported by /health
type BreakerStats struct {
	Enabled bool              `json:"enabled"`
	Name    string            `json:"name,omitempty"`
	State   string            `json:"state,omitempty"`
	Counts  *gobreaker.Counts `json:"counts,omitempty"`
}

// NewCompletionBreaker creates the breaker for an operation's generation calls.
// It trips once minRequests were seen and the failure ratio reaches the threshold.
func NewCompletionBreaker[T any](operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}
	return newBreaker[T](fmt.Sprintf("AI-%s", operation), operation, cfg, func(counts gobreaker.Counts) bool {
		return counts.Requests >= cfg.MinRequests && failureRatio(counts) >= cfg.FailureThreshold
	}, logger)
}

// NewModelInfoBreaker creates a more lenient breaker for model availability checks
func NewModelInfoBreaker[T any](operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}
	return newBreaker[T](fmt.Sprintf("AI-Model-%s", operation), operation, cfg, func(counts gobreaker.Counts) bool {
		return counts.Requests >= 5 && failureRatio(counts) >= 0.8
	}, logger)
}

func newBreaker[T any](name, operation string, cfg config.CircuitBreakerConfig, readyToTrip func(gobreaker.Counts) bool, logger *errors.Logger) *Breaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		// Caller-side faults must not open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsUpstream(err) || errors.IsType(err, errors.ErrorTypeUpstreamAuth)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation", operation,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

func failureRatio(counts gobreaker.Counts) float64 {
	if counts.Requests == 0 {
		return 0
	}
	return float64(counts.TotalFailures) / float64(counts.Requests)
}

// Execute runs fn with circuit breaker protection
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns the breaker state
func (b *Breaker[T]) Stats() BreakerStats {
	if b == nil || b.cb == nil {
		return BreakerStats{Enabled: false}
	}
	counts := b.cb.Counts()
	return BreakerStats{
		Enabled: true,
		Name:    b.cb.Name(),
		State:   b.cb.State().String(),
		Counts:  &counts,
	}
}

// IsHealthy returns true if the breaker is closed or absent
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// isBreakerRejection reports whether err came from an open or saturated breaker
func isBreakerRejection(err error) bool {
	return stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)
}
