// Package cdn defines the abstract CDN edge collaborator the streaming core
// issues signed playback URLs against, plus a resty-backed implementation.
package cdn

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

// Edge is one CDN domain the transport layer can route traffic to.
type Edge interface {
	// Domain returns the CDN hostname used for breaker keying and rotation.
	Domain() string
	// SignedURL returns a time-limited playback URL for objectKey on this edge.
	SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
	// Ping performs a cheap liveness probe against the edge.
	Ping(ctx context.Context) error
}

// HTTPEdge implements Edge against a CDN's signing API.
type HTTPEdge struct {
	domain string
	client *resty.Client
}

// NewHTTPEdge constructs an HTTPEdge for the given CDN domain.
func NewHTTPEdge(domain string, timeout time.Duration) *HTTPEdge {
	c := resty.New().
		SetBaseURL("https://" + domain).
		SetTimeout(timeout).
		SetRetryCount(0)
	return &HTTPEdge{domain: domain, client: c}
}

func (e *HTTPEdge) Domain() string { return e.domain }

func (e *HTTPEdge) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParam("key", objectKey).
		SetQueryParam("ttl", ttl.String()).
		Get("/sign")
	if err != nil {
		return "", errs.Wrap(errs.Unavailable, err, fmt.Sprintf("cdn %s sign request failed", e.domain))
	}
	if resp.StatusCode() >= 500 {
		return "", errs.New(errs.Unavailable, fmt.Sprintf("cdn %s returned %d", e.domain, resp.StatusCode()))
	}
	return string(resp.Body()), nil
}

func (e *HTTPEdge) Ping(ctx context.Context) error {
	resp, err := e.client.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return errs.Wrap(errs.Unavailable, err, fmt.Sprintf("cdn %s ping failed", e.domain))
	}
	if resp.StatusCode() >= 500 {
		return errs.New(errs.Unavailable, fmt.Sprintf("cdn %s returned %d", e.domain, resp.StatusCode()))
	}
	return nil
}
