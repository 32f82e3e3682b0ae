// Package health tracks per-provider consecutive-failure state and gates
// calls through a circuit breaker, using github.com/sony/gobreaker the way
// jordigilh-kubernaut's integration suite configures it (Settings with a
// ReadyToTrip predicate and an OnStateChange hook), wrapped in a registry
// keyed by provider name since gobreaker.CircuitBreaker itself is
// single-circuit.
package health

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

const (
	failureThreshold = 3
	openDuration      = 300 * time.Second
)

// Registry owns one circuit breaker per provider, created lazily on first
// use. Each breaker's own mutex covers its read-modify-write, so the
// registry only needs to protect the map of breakers.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewRegistry constructs an empty health registry.
func NewRegistry() *Registry {
	return &Registry{breakers: map[string]*gobreaker.CircuitBreaker{}}
}

func (r *Registry) breaker(provider string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[provider]; ok {
		return b
	}
	name := provider
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		Timeout: openDuration,
		OnStateChange: func(bname string, from, to gobreaker.State) {
			slog.Info("provider circuit state change", "provider", bname, "from", from, "to", to)
		},
	})
	r.breakers[provider] = b
	return b
}

// ErrCircuitOpen is returned by IsOpen-gated callers; kept distinct from
// gobreaker.ErrOpenState so callers outside this package don't need to
// import gobreaker directly.
var ErrCircuitOpen = errors.New("circuit open")

// IsOpen reports whether provider's circuit is currently open (i.e. the
// provider should be skipped).
func (r *Registry) IsOpen(provider string) bool {
	return r.breaker(provider).State() == gobreaker.StateOpen
}

// RecordSuccess resets the consecutive-failure counter and closes the
// circuit immediately, per the router's circuit-breaker contract.
func (r *Registry) RecordSuccess(provider string) {
	b := r.breaker(provider)
	_, _ = b.Execute(func() (any, error) { return nil, nil })
}

// RecordFailure increments the consecutive-failure counter; after
// failureThreshold consecutive failures the circuit opens for openDuration.
func (r *Registry) RecordFailure(provider string) {
	b := r.breaker(provider)
	_, _ = b.Execute(func() (any, error) { return nil, errors.New("provider call failed") })
}

// Counts exposes the current consecutive-failure count for a provider,
// mainly for ADMIN/HELP reporting.
func (r *Registry) Counts(provider string) gobreaker.Counts {
	return r.breaker(provider).Counts()
}
