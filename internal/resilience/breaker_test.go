package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsOnConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{
		Name:             "storage",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		ResetTimeout:     50 * time.Millisecond,
	})

	require.True(t, cb.Allow())
	cb.Report(false)
	require.True(t, cb.Allow())
	cb.Report(false)
	assert.Equal(t, StateClosed, cb.State(), "should stay closed below threshold")

	require.True(t, cb.Allow())
	cb.Report(false)
	assert.Equal(t, StateOpen, cb.State(), "should trip open at threshold")
	assert.False(t, cb.Allow(), "open breaker must reject")
}

func TestCircuitBreaker_SuccessResetsConsecutiveCount(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{Name: "cdn", FailureThreshold: 2, SuccessThreshold: 1, ResetTimeout: time.Second})

	cb.Allow()
	cb.Report(false)
	cb.Allow()
	cb.Report(true) // resets consecutive count
	cb.Allow()
	cb.Report(false)
	assert.Equal(t, StateClosed, cb.State(), "a success in between should prevent tripping")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{
		Name:             "storage",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		ResetTimeout:     10 * time.Millisecond,
	})

	cb.Allow()
	cb.Report(false)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	require.True(t, cb.Allow(), "should admit a probe after reset timeout")
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.Report(true)
	assert.Equal(t, StateHalfOpen, cb.State(), "one success below successThreshold stays half-open")

	time.Sleep(2 * time.Millisecond) // respect probe-admission pacing
	require.True(t, cb.Allow())
	cb.Report(true)
	assert.Equal(t, StateClosed, cb.State(), "successThreshold consecutive probe successes close it")
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{
		Name:             "cdn",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		ResetTimeout:     10 * time.Millisecond,
	})
	cb.Allow()
	cb.Report(false)
	time.Sleep(20 * time.Millisecond)

	require.True(t, cb.Allow())
	cb.Report(false)
	assert.Equal(t, StateOpen, cb.State(), "a failed probe must re-open")
}

func TestCircuitBreaker_HalfOpenProbeCountLimitsConcurrency(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{
		Name:               "cdn",
		FailureThreshold:   1,
		SuccessThreshold:   1,
		ResetTimeout:       10 * time.Millisecond,
		HalfOpenProbeCount: 1,
	})
	cb.Allow()
	cb.Report(false)
	time.Sleep(20 * time.Millisecond)

	require.True(t, cb.Allow(), "first probe admitted")
	assert.False(t, cb.Allow(), "second concurrent probe must be rejected while one is in flight")
}

func TestRegistry_GetOrCreateIsStable(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("storage", DefaultBreakerConfig("storage"))
	b := r.GetOrCreate("storage", DefaultBreakerConfig("storage"))
	assert.Same(t, a, b, "repeated GetOrCreate for the same name must return the same breaker")
}
