// Package breaker wraps sony/gobreaker with a registry of named circuit
// breakers, one per logical ledger operation. The registry is constructed by
// the wiring code and injected into services; there is no process-wide
// shared instance.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/commons"
)

// Names of the ledger's logical operations.
const (
	AccountWrite = "account-write"
	AccountRead  = "account-read"
)

// Config controls when a breaker trips and how it recovers.
type Config struct {
	// MinRequests is the minimum sample size before the failure ratio is
	// evaluated within a counting window.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
	// OpenTimeout is how long an open breaker rejects calls before moving to
	// half-open.
	OpenTimeout time.Duration
	// HalfOpenMaxCalls is the number of trial calls permitted while half-open.
	HalfOpenMaxCalls uint32
	// Interval resets the closed-state counting window.
	Interval time.Duration
}

// DefaultConfig opens at a 50% failure rate over at least 3 observed calls,
// waits 30s before probing, and allows 3 half-open trial calls.
func DefaultConfig() Config {
	return Config{
		MinRequests:      3,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 3,
		Interval:         time.Minute,
	}
}

// Registry holds one breaker per operation name, created on first use.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
	cfg      Config
	logger   *zap.SugaredLogger
}

func NewRegistry(cfg Config, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Registry) get(name string) *gobreaker.CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok = r.breakers[name]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: r.cfg.HalfOpenMaxCalls,
		Interval:    r.cfg.Interval,
		Timeout:     r.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= r.cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warnw("circuit breaker state changed",
				"operation", name, "from", from.String(), "to", to.String())
		},
	}

	cb = gobreaker.NewCircuitBreaker(settings)
	r.breakers[name] = cb
	return cb
}

// Execute runs op through the named breaker. While the breaker is open, or
// when half-open trial capacity is exhausted, op is not invoked and
// commons.ErrCircuitOpen is returned.
func (r *Registry) Execute(name string, op func() (any, error)) (any, error) {
	result, err := r.get(name).Execute(op)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.Warnw("circuit breaker rejected call", "operation", name)
			return nil, commons.ErrCircuitOpen
		}
	}
	return result, err
}

// State returns the current state of the named breaker.
func (r *Registry) State(name string) gobreaker.State {
	return r.get(name).State()
}
