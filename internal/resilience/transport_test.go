package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/cdn"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

type fakeStore struct {
	name    string
	fail    bool
	calls   int
	failAll bool
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	f.calls++
	if f.fail || f.failAll {
		return "", errs.New(errs.Unavailable, "store down")
	}
	return "https://" + f.name + "/" + objectKey, nil
}

func (f *fakeStore) Head(ctx context.Context, objectKey string) error { return nil }

type fakeEdge struct {
	domain string
	fail   bool
	calls  int
}

func (f *fakeEdge) Domain() string { return f.domain }

func (f *fakeEdge) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	f.calls++
	if f.fail {
		return "", errs.New(errs.Unavailable, "edge down")
	}
	return "https://" + f.domain + "/" + objectKey, nil
}

func (f *fakeEdge) Ping(ctx context.Context) error { return nil }

func fastRetry(name string) RetryConfig {
	return RetryConfig{Name: name, MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func fastBreaker() BreakerConfig {
	return BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, ResetTimeout: 10 * time.Millisecond}
}

func TestStorageTransport_FallsOverToFallbackWhenPrimaryFails(t *testing.T) {
	primary := &fakeStore{name: "s3-primary", failAll: true}
	fallback := &fakeStore{name: "s3-fallback"}
	tr := NewStorageTransport(primary, fallback, NewRegistry(), fastRetry("s3-primary"), fastBreaker())

	url, err := tr.SignedURL(context.Background(), "song-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://s3-fallback/song-1", url)
}

func TestStorageTransport_NoFallbackPropagatesError(t *testing.T) {
	primary := &fakeStore{name: "s3-primary", failAll: true}
	tr := NewStorageTransport(primary, nil, NewRegistry(), fastRetry("s3-primary"), fastBreaker())

	_, err := tr.SignedURL(context.Background(), "song-1", time.Minute)
	require.Error(t, err)
}

func TestCDNTransport_RotatesToNextDomainOnOpenBreaker(t *testing.T) {
	a := &fakeEdge{domain: "cdn-a.example.com", fail: true}
	b := &fakeEdge{domain: "cdn-b.example.com"}
	origin := &fakeStore{name: "origin"}
	tr := NewCDNTransport([]cdn.Edge{a, b}, origin, NewRegistry(), fastRetry("cdn"), fastBreaker())

	url, err := tr.SignedURL(context.Background(), "song-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn-b.example.com/song-1", url)
}

func TestCDNTransport_FallsBackToOriginWhenAllEdgesOpen(t *testing.T) {
	a := &fakeEdge{domain: "cdn-a.example.com", fail: true}
	b := &fakeEdge{domain: "cdn-b.example.com", fail: true}
	origin := &fakeStore{name: "origin"}
	tr := NewCDNTransport([]cdn.Edge{a, b}, origin, NewRegistry(), fastRetry("cdn"), fastBreaker())

	url, err := tr.SignedURL(context.Background(), "song-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://origin/song-1", url)
}
