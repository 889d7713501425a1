package health

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/resilience"
)

// BreakerRegistryChecker reports degraded/unhealthy when any circuit in a
// resilience.Registry is not CLOSED, so an open storage or CDN breaker
// shows up in /health without needing its own network probe.
type BreakerRegistryChecker struct {
	name      string
	registry  *resilience.Registry
	readiness bool
}

// NewBreakerRegistryChecker wraps registry under name. readiness controls
// whether this checker also gates /health/ready.
func NewBreakerRegistryChecker(name string, registry *resilience.Registry, readiness bool) *BreakerRegistryChecker {
	return &BreakerRegistryChecker{name: name, registry: registry, readiness: readiness}
}

func (c *BreakerRegistryChecker) Name() string    { return c.name }
func (c *BreakerRegistryChecker) Readiness() bool { return c.readiness }

func (c *BreakerRegistryChecker) Check(ctx context.Context) CheckResult {
	snapshot := c.registry.Snapshot()
	if len(snapshot) == 0 {
		return CheckResult{Status: StatusHealthy}
	}

	open, halfOpen := 0, 0
	for _, state := range snapshot {
		switch state {
		case resilience.StateOpen:
			open++
		case resilience.StateHalfOpen:
			halfOpen++
		}
	}

	switch {
	case open > 0:
		return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("%d of %d breakers open", open, len(snapshot))}
	case halfOpen > 0:
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("%d of %d breakers half-open", halfOpen, len(snapshot))}
	default:
		return CheckResult{Status: StatusHealthy}
	}
}

// DBChecker pings a *sql.DB, catching connection pool exhaustion or a
// dropped database before it surfaces as a request-path failure.
type DBChecker struct {
	name string
	db   *sql.DB
}

// NewDBChecker wraps db under name, always contributing to readiness.
func NewDBChecker(name string, db *sql.DB) *DBChecker {
	return &DBChecker{name: name, db: db}
}

func (c *DBChecker) Name() string    { return c.name }
func (c *DBChecker) Readiness() bool { return true }

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	if err := c.db.PingContext(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// PingerChecker wraps anything exposing a context-aware Ping, such as a
// cache.RedisCache, as a non-blocking readiness signal: a Redis outage
// degrades caching but shouldn't take the whole service unhealthy.
type PingerChecker struct {
	name   string
	pinger interface{ Ping(ctx context.Context) error }
}

// NewPingerChecker wraps pinger under name.
func NewPingerChecker(name string, pinger interface{ Ping(ctx context.Context) error }) *PingerChecker {
	return &PingerChecker{name: name, pinger: pinger}
}

func (c *PingerChecker) Name() string    { return c.name }
func (c *PingerChecker) Readiness() bool { return false }

func (c *PingerChecker) Check(ctx context.Context) CheckResult {
	if err := c.pinger.Ping(ctx); err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
