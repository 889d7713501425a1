package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/cdn"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/metrics"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/objectstore"
)

// StorageTransport wraps a primary object store with an optional fallback,
// each behind its own circuit breaker and shared retry policy, per spec.md
// §4.D's storage variant.
type StorageTransport struct {
	primary    objectstore.Store
	fallback   objectstore.Store
	breakers   *Registry
	retry      *RetryConfig
	breakerCfg BreakerConfig
}

// NewStorageTransport constructs a StorageTransport. fallback may be nil.
func NewStorageTransport(primary, fallback objectstore.Store, breakers *Registry, retryCfg RetryConfig, breakerCfg BreakerConfig) *StorageTransport {
	return &StorageTransport{
		primary:    primary,
		fallback:   fallback,
		breakers:   breakers,
		retry:      &retryCfg,
		breakerCfg: breakerCfg,
	}
}

// SignedURL obtains a presigned URL from the primary store, retrying
// transient failures; if retries are exhausted and a fallback is configured
// with a non-open breaker, it is tried once against the fallback.
func (t *StorageTransport) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	url, err := t.callStore(ctx, t.primary, func(c context.Context) (string, error) {
		return t.primary.SignedURL(c, objectKey, ttl)
	})
	if err == nil {
		return url, nil
	}
	if t.fallback == nil || !Retryable(err) {
		return "", err
	}

	fb := t.breakers.GetOrCreate(t.fallback.Name(), t.withName(t.fallback.Name()))
	if !fb.Allow() {
		return "", err
	}
	fbURL, fbErr := t.fallback.SignedURL(ctx, objectKey, ttl)
	fb.Report(fbErr == nil)
	if fbErr != nil {
		return "", fbErr
	}
	return fbURL, nil
}

// Upload performs an idempotent upload against the primary store, retrying
// on the primary before failing over to the fallback — this core never
// fails an upload over silently for non-idempotent operations.
func (t *StorageTransport) Upload(ctx context.Context, objectKey string, idempotent bool, op func(ctx context.Context, store objectstore.Store) error) error {
	breaker := t.breakers.GetOrCreate(t.primary.Name(), t.withName(t.primary.Name()))
	err := t.runWithBreaker(ctx, breaker, func(c context.Context) error {
		return op(c, t.primary)
	})
	if err == nil || !idempotent || t.fallback == nil || !Retryable(err) {
		return err
	}

	fb := t.breakers.GetOrCreate(t.fallback.Name(), t.withName(t.fallback.Name()))
	if !fb.Allow() {
		return err
	}
	fbErr := op(ctx, t.fallback)
	fb.Report(fbErr == nil)
	return fbErr
}

func (t *StorageTransport) callStore(ctx context.Context, store objectstore.Store, call func(context.Context) (string, error)) (string, error) {
	breaker := t.breakers.GetOrCreate(store.Name(), t.withName(store.Name()))
	var result string
	err := t.runWithBreaker(ctx, breaker, func(c context.Context) error {
		v, e := call(c)
		result = v
		return e
	})
	return result, err
}

func (t *StorageTransport) runWithBreaker(ctx context.Context, breaker *CircuitBreaker, op func(context.Context) error) error {
	if !breaker.Allow() {
		return breaker.Err()
	}
	policy := NewRetryPolicy(*t.retry)
	err := policy.Do(ctx, op)
	breaker.Report(err == nil)
	return err
}

func (t *StorageTransport) withName(name string) BreakerConfig {
	cfg := t.breakerCfg
	cfg.Name = name
	return cfg
}

// CDNTransport rotates across a list of CDN domains, each with its own
// breaker, falling back to origin object storage if every CDN breaker is
// OPEN, per spec.md §4.D's CDN variant.
type CDNTransport struct {
	edges      []cdn.Edge
	origin     objectstore.Store
	breakers   *Registry
	retry      RetryConfig
	breakerCfg BreakerConfig

	mu   sync.Mutex
	next int
}

// NewCDNTransport constructs a CDNTransport over edges with origin as the
// final fallback store.
func NewCDNTransport(edges []cdn.Edge, origin objectstore.Store, breakers *Registry, retryCfg RetryConfig, breakerCfg BreakerConfig) *CDNTransport {
	return &CDNTransport{edges: edges, origin: origin, breakers: breakers, retry: retryCfg, breakerCfg: breakerCfg}
}

// SignedURL round-robins across healthy CDN edges, starting from the next
// rotation position, and falls back to origin if every edge's breaker is OPEN.
func (t *CDNTransport) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	n := len(t.edges)
	start := t.startIndex()
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		edge := t.edges[idx]
		cfg := t.breakerCfg
		cfg.Name = edge.Domain()
		breaker := t.breakers.GetOrCreate(edge.Domain(), cfg)

		if !breaker.Allow() {
			continue
		}
		policy := NewRetryPolicy(t.retry)
		var url string
		err := policy.Do(ctx, func(c context.Context) error {
			u, e := edge.SignedURL(c, objectKey, ttl)
			url = u
			return e
		})
		breaker.Report(err == nil)
		if err == nil {
			t.setNext((idx + 1) % n)
			return url, nil
		}
		if !Retryable(err) {
			return "", err
		}
	}

	metrics.SetActiveCDNDomains(t.ActiveDomainCount())
	if t.origin == nil {
		return "", errs.New(errs.CircuitOpen, "all cdn domains unavailable and no origin fallback configured")
	}

	cfg := t.breakerCfg
	cfg.Name = t.origin.Name()
	breaker := t.breakers.GetOrCreate(t.origin.Name(), cfg)
	if !breaker.Allow() {
		return "", breaker.Err()
	}
	url, err := t.origin.SignedURL(ctx, objectKey, ttl)
	breaker.Report(err == nil)
	return url, err
}

func (t *CDNTransport) startIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

func (t *CDNTransport) setNext(idx int) {
	t.mu.Lock()
	t.next = idx
	t.mu.Unlock()
}

// ActiveDomainCount returns how many CDN edges do not currently have an OPEN
// breaker, for health reporting.
func (t *CDNTransport) ActiveDomainCount() int {
	count := 0
	for _, edge := range t.edges {
		cfg := t.breakerCfg
		cfg.Name = edge.Domain()
		b := t.breakers.GetOrCreate(edge.Domain(), cfg)
		if b.State() != StateOpen {
			count++
		}
	}
	return count
}

