// Package resilience implements the Resilient Transport fabric: a
// consecutive-failure circuit breaker and an exponential-backoff retry
// policy, composable around any outbound call.
package resilience

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/metrics"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerConfig configures a CircuitBreaker per spec.md §4.D.
type BreakerConfig struct {
	Name               string
	FailureThreshold   int           // consecutive failures before tripping to OPEN
	SuccessThreshold   int           // consecutive HALF_OPEN successes before closing
	ResetTimeout       time.Duration // time OPEN must elapse before a probe is allowed
	HalfOpenProbeCount int           // concurrent probes admitted while HALF_OPEN
}

// DefaultBreakerConfig returns the documented defaults for name.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:               name,
		FailureThreshold:   5,
		SuccessThreshold:   2,
		ResetTimeout:       60 * time.Second,
		HalfOpenProbeCount: 3,
	}
}

// CircuitBreaker is a consecutive-failure-counting breaker: CLOSED allows
// all traffic; on FailureThreshold consecutive failures it trips OPEN for
// ResetTimeout; after that it admits up to HalfOpenProbeCount concurrent
// probes in HALF_OPEN; SuccessThreshold consecutive probe successes close
// it, any probe failure re-opens it.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu               sync.Mutex
	state            State
	consecutiveFails int
	halfOpenSuccess  int
	openUntil        time.Time
	inFlightProbes   int
	probeLimiter     *rate.Limiter
}

// NewCircuitBreaker constructs a CircuitBreaker in the CLOSED state.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	if cfg.HalfOpenProbeCount <= 0 {
		cfg.HalfOpenProbeCount = 3
	}
	cb := &CircuitBreaker{cfg: cfg, state: StateClosed}
	metrics.SetCircuitBreakerState(cfg.Name, cb.state.String())
	return cb
}

// Allow reports whether a call may proceed right now, and reserves a
// HALF_OPEN probe slot if it does so during recovery. Callers that receive
// true from a HALF_OPEN state MUST call Report exactly once afterward.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().Before(cb.openUntil) {
			return false
		}
		cb.transitionToHalfOpen()
		fallthrough
	case StateHalfOpen:
		if cb.inFlightProbes >= cb.cfg.HalfOpenProbeCount {
			return false
		}
		if cb.probeLimiter != nil && !cb.probeLimiter.Allow() {
			return false
		}
		cb.inFlightProbes++
		return true
	default:
		return false
	}
}

// Report records the outcome of a call admitted by Allow.
func (cb *CircuitBreaker) Report(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.inFlightProbes--
		if success {
			cb.halfOpenSuccess++
			if cb.halfOpenSuccess >= cb.cfg.SuccessThreshold {
				cb.transitionToClosed()
			}
		} else {
			cb.transitionToOpen("probe_failed")
		}
	case StateClosed:
		if success {
			cb.consecutiveFails = 0
			return
		}
		cb.consecutiveFails++
		if cb.consecutiveFails >= cb.cfg.FailureThreshold {
			cb.transitionToOpen("consecutive_failures")
		}
	case StateOpen:
		// A racing report that lands after expiry transitioned us; ignore.
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Err returns the tagged error to surface to callers rejected by Allow.
func (cb *CircuitBreaker) Err() error {
	return errs.New(errs.CircuitOpen, "circuit breaker '"+cb.cfg.Name+"' is open")
}

func (cb *CircuitBreaker) transitionToOpen(reason string) {
	cb.state = StateOpen
	cb.openUntil = time.Now().Add(cb.cfg.ResetTimeout)
	cb.consecutiveFails = 0
	cb.halfOpenSuccess = 0
	cb.inFlightProbes = 0
	metrics.SetCircuitBreakerState(cb.cfg.Name, cb.state.String())
	metrics.RecordCircuitBreakerTrip(cb.cfg.Name, reason)
	log.L().Warn().Str("breaker", cb.cfg.Name).Str("reason", reason).Msg("circuit breaker tripped OPEN")
}

func (cb *CircuitBreaker) transitionToHalfOpen() {
	cb.state = StateHalfOpen
	cb.halfOpenSuccess = 0
	cb.inFlightProbes = 0
	// Pace probe admission beyond the instantaneous HalfOpenProbeCount cap so a
	// flood of callers arriving the instant recovery opens can't all land at
	// once: a new probe slot refills every tenth of ResetTimeout, letting a
	// single slow prober work through successive probes well before the next
	// full trip-to-retry cycle would have elapsed anyway.
	cb.probeLimiter = rate.NewLimiter(rate.Every(cb.cfg.ResetTimeout/10), cb.cfg.HalfOpenProbeCount)
	metrics.SetCircuitBreakerState(cb.cfg.Name, cb.state.String())
	log.L().Info().Str("breaker", cb.cfg.Name).Msg("circuit breaker entering HALF_OPEN")
}

func (cb *CircuitBreaker) transitionToClosed() {
	cb.state = StateClosed
	cb.consecutiveFails = 0
	cb.halfOpenSuccess = 0
	metrics.SetCircuitBreakerState(cb.cfg.Name, cb.state.String())
	log.L().Info().Str("breaker", cb.cfg.Name).Msg("circuit breaker CLOSED")
}

// Registry hands out one CircuitBreaker per resource name, lazily
// constructed by GetOrCreate from the config passed on first use.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry constructs an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// GetOrCreate returns the breaker for name, creating it with cfg if absent.
func (r *Registry) GetOrCreate(name string, cfg BreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	cfg.Name = name
	b := NewCircuitBreaker(cfg)
	r.breakers[name] = b
	return b
}

// Snapshot returns the current state of every registered breaker, keyed by
// name, for health/readiness reporting.
func (r *Registry) Snapshot() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]State, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
