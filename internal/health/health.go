// Package health aggregates component checkers into the three-level
// verdict (healthy/degraded/unhealthy) spec.md §4.E's HTTP surface
// exposes, with a singleflight-cached readiness probe to absorb bursts of
// concurrent readiness checks behind one upstream call.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
)

// Status is the three-level health verdict spec.md §4.E defines.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is one component's contribution to an aggregate verdict.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Checker is a single health or readiness component probe.
type Checker interface {
	Name() string
	// Readiness marks a checker as contributing to /health/ready, not
	// only /health.
	Readiness() bool
	Check(ctx context.Context) CheckResult
}

// Response is the JSON body for both /health and /health/ready.
type Response struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Manager aggregates registered Checkers into /health and /health/ready
// verdicts.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker

	sfg           singleflight.Group
	readyCacheTTL time.Duration
	lastReady     Response
	lastReadyAt   time.Time
}

// NewManager constructs an empty Manager. readyCacheTTL governs how long
// a computed readiness verdict is reused before the next call triggers a
// fresh probe; 0 disables caching.
func NewManager(readyCacheTTL time.Duration) *Manager {
	return &Manager{readyCacheTTL: readyCacheTTL}
}

// Register adds a Checker to the manager.
func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Live always reports healthy: liveness only asks whether the process is
// responsive, not whether its dependencies are.
func (m *Manager) Live() Response {
	return Response{Status: StatusHealthy, Timestamp: time.Now()}
}

// Health runs every registered checker and aggregates: unhealthy if any
// checker reports unhealthy, else degraded if any reports degraded, else
// healthy.
func (m *Manager) Health(ctx context.Context) Response {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	resp := Response{Status: StatusHealthy, Timestamp: time.Now(), Checks: make(map[string]CheckResult)}
	degraded, unhealthy := false, false

	for _, c := range checkers {
		res := c.Check(ctx)
		resp.Checks[c.Name()] = res
		switch res.Status {
		case StatusUnhealthy:
			unhealthy = true
		case StatusDegraded:
			degraded = true
		}
	}

	switch {
	case unhealthy:
		resp.Status = StatusUnhealthy
	case degraded:
		resp.Status = StatusDegraded
	}
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

// Ready runs only readiness-scoped checkers (those whose Readiness() is
// true; cmd/server registers the storage-breaker and database checkers as
// such), caching the verdict for readyCacheTTL and collapsing concurrent
// callers onto one in-flight probe via singleflight. It sends no request
// to object storage itself: storage reachability is read from breaker state.
func (m *Manager) Ready(ctx context.Context) Response {
	m.mu.RLock()
	if m.readyCacheTTL > 0 && !m.lastReadyAt.IsZero() && time.Since(m.lastReadyAt) < m.readyCacheTTL {
		cached := m.lastReady
		m.mu.RUnlock()
		return cached
	}
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	val, err, _ := m.sfg.Do("ready", func() (interface{}, error) {
		probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp := Response{Status: StatusHealthy, Ready: true, Timestamp: time.Now(), Checks: make(map[string]CheckResult)}
		for _, c := range checkers {
			if !c.Readiness() {
				continue
			}
			res := c.Check(probeCtx)
			resp.Checks[c.Name()] = res
			if res.Status == StatusUnhealthy {
				resp.Status = StatusUnhealthy
				resp.Ready = false
			} else if res.Status == StatusDegraded && resp.Status != StatusUnhealthy {
				resp.Status = StatusDegraded
			}
		}

		m.mu.Lock()
		m.lastReady = resp
		m.lastReadyAt = resp.Timestamp
		m.mu.Unlock()

		return resp, nil
	})
	if err != nil {
		return Response{Status: StatusUnhealthy, Ready: false, Timestamp: time.Now(), Error: err.Error()}
	}
	return val.(Response)
}

// ServeLive implements GET /health/live.
func (m *Manager) ServeLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.Live())
}

// ServeHealth implements GET /health.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := m.Health(r.Context())
	status := http.StatusOK
	if resp.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// ServeReady implements GET /health/ready.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.L().Error().Err(err).Msg("health: failed to encode response")
	}
}
