package fetch

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig configures the per-origin circuit breaker of §4.7.
type BreakerConfig struct {
	Enabled   bool
	Threshold uint32
	Timeout   time.Duration
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes
// again after 30s in the open state.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Enabled: true, Threshold: 5, Timeout: 30 * time.Second}
}

// BreakerRegistry holds one gobreaker.CircuitBreaker per origin,
// created lazily on first use.
type BreakerRegistry struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerRegistry creates a registry. When cfg.Enabled is false,
// Execute always calls fn directly.
func NewBreakerRegistry(cfg BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{cfg: cfg, breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte])}
}

func (r *BreakerRegistry) breakerFor(origin string) *gobreaker.CircuitBreaker[[]byte] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[origin]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:    origin,
		Timeout: r.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.cfg.Threshold
		},
	}
	b := gobreaker.NewCircuitBreaker[[]byte](settings)
	r.breakers[origin] = b
	return b
}

// State reports the current breaker state for origin, creating the
// breaker if it doesn't exist yet.
func (r *BreakerRegistry) State(origin string) gobreaker.State {
	return r.breakerFor(origin).State()
}

// Execute runs fn through origin's breaker. If the breaker is open,
// fn is never called and Execute returns a *Error{Kind:"circuit_open"}.
func (r *BreakerRegistry) Execute(origin string, fn func() ([]byte, error)) ([]byte, error) {
	if !r.cfg.Enabled {
		return fn()
	}

	b := r.breakerFor(origin)
	body, err := b.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: "circuit_open", Err: err, Retryable: false}
		}
		return nil, err
	}

	return body, nil
}
