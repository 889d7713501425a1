// Package metrics exposes Prometheus instrumentation for the streaming core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "musify_circuit_breaker_state",
		Help: "Circuit breaker state by resource: 1 on the current state's label (closed, half_open or open), 0 on the others.",
	}, []string{"resource", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musify_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to OPEN), by resource and reason.",
	}, []string{"resource", "reason"})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musify_retry_attempts_total",
		Help: "Total retry attempts issued by the resilience layer, by resource.",
	}, []string{"resource"})

	activeSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "musify_active_sessions",
		Help: "Current number of ACTIVE or PAUSED streaming sessions, by subscription tier.",
	}, []string{"tier"})

	sessionStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musify_session_starts_total",
		Help: "Total stream start attempts, by outcome.",
	}, []string{"outcome"})

	sessionExpirations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musify_session_expirations_total",
		Help: "Total sessions transitioned to EXPIRED by the janitor.",
	}, []string{})

	bufferHealthScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "musify_buffer_health_score",
		Help:    "Distribution of computed buffer health scores in [0,1].",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	activeCDNDomains = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "musify_cdn_active_domains",
		Help: "Current number of CDN domains not in the OPEN state.",
	})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musify_cache_requests_total",
		Help: "Cache lookups, by cache name and outcome (hit/miss).",
	}, []string{"cache", "outcome"})
)

var breakerStates = []string{"closed", "half_open", "open"}

// SetCircuitBreakerState records the active state for a resource breaker.
func SetCircuitBreakerState(resource, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		circuitBreakerState.WithLabelValues(resource, s).Set(v)
	}
}

// RecordCircuitBreakerTrip increments the trip counter for resource.
func RecordCircuitBreakerTrip(resource, reason string) {
	circuitBreakerTrips.WithLabelValues(resource, reason).Inc()
}

// RecordRetryAttempt increments the retry counter for resource.
func RecordRetryAttempt(resource string) {
	retryAttempts.WithLabelValues(resource).Inc()
}

// SetActiveSessions sets the active-session gauge for a subscription tier.
func SetActiveSessions(tier string, n int) {
	activeSessions.WithLabelValues(tier).Set(float64(n))
}

// RecordSessionStart records the outcome of a startSession call.
func RecordSessionStart(outcome string) {
	sessionStarts.WithLabelValues(outcome).Inc()
}

// RecordSessionExpiration increments the janitor expiration counter.
func RecordSessionExpiration() {
	sessionExpirations.WithLabelValues().Inc()
}

// ObserveBufferHealthScore records one computed health score sample.
func ObserveBufferHealthScore(score float64) {
	bufferHealthScore.Observe(score)
}

// SetActiveCDNDomains records the number of CDN domains not OPEN.
func SetActiveCDNDomains(n int) {
	activeCDNDomains.Set(float64(n))
}

// RecordCacheResult increments the hit/miss counter for a named cache.
func RecordCacheResult(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheHits.WithLabelValues(cache, outcome).Inc()
}
