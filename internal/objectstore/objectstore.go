// Package objectstore defines the abstract object-storage collaborator the
// streaming core signs URLs against, plus a resty-backed HTTP implementation.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

// Store is the abstract capability Resilient Transport wraps: presigned URL
// issuance and existence checks against a single backing store.
type Store interface {
	// Name identifies the store for breaker/metric labeling (e.g. "s3-primary").
	Name() string
	// SignedURL returns a time-limited URL for objectKey.
	SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
	// Head checks that objectKey exists and is readable.
	Head(ctx context.Context, objectKey string) error
}

// HTTPStore implements Store against an HTTP object storage API (e.g. an S3
// presign endpoint fronted by an internal signing service).
type HTTPStore struct {
	name    string
	baseURL string
	client  *resty.Client
}

// NewHTTPStore constructs an HTTPStore named name talking to baseURL.
func NewHTTPStore(name, baseURL string, timeout time.Duration) *HTTPStore {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0) // retries are owned by the resilience layer, not the client

	return &HTTPStore{name: name, baseURL: baseURL, client: c}
}

func (s *HTTPStore) Name() string { return s.name }

func (s *HTTPStore) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("key", objectKey).
		SetQueryParam("ttl", ttl.String()).
		Get("/sign")
	if err != nil {
		return "", errs.Wrap(errs.Unavailable, err, fmt.Sprintf("sign request to %s failed", s.name))
	}
	if resp.StatusCode() >= 500 {
		return "", errs.New(errs.Unavailable, fmt.Sprintf("%s returned %d", s.name, resp.StatusCode()))
	}
	if resp.StatusCode() >= 400 {
		return "", errs.New(errs.NotFound, fmt.Sprintf("object %s not found in %s", objectKey, s.name))
	}
	return string(resp.Body()), nil
}

func (s *HTTPStore) Head(ctx context.Context, objectKey string) error {
	resp, err := s.client.R().SetContext(ctx).Head("/objects/" + objectKey)
	if err != nil {
		return errs.Wrap(errs.Unavailable, err, fmt.Sprintf("head request to %s failed", s.name))
	}
	if resp.StatusCode() == 404 {
		return errs.New(errs.NotFound, fmt.Sprintf("object %s not found in %s", objectKey, s.name))
	}
	if resp.StatusCode() >= 500 {
		return errs.New(errs.Unavailable, fmt.Sprintf("%s returned %d", s.name, resp.StatusCode()))
	}
	return nil
}
