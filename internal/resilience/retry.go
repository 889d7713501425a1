package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/metrics"
)

// RetryConfig configures exponential backoff with jitter per spec.md §4.D.
type RetryConfig struct {
	Name              string
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// JitterFraction bounds the +/- jitter applied to each computed delay,
	// e.g. 0.2 for +/-20%.
	JitterFraction float64
}

// DefaultRetryConfig returns the spec's suggested defaults for name.
func DefaultRetryConfig(name string) RetryConfig {
	return RetryConfig{
		Name:              name,
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.2,
	}
}

// RetryPolicy executes an operation, retrying retryable failures with
// exponential backoff and bounded jitter.
type RetryPolicy struct {
	cfg RetryConfig
}

// NewRetryPolicy constructs a RetryPolicy, defaulting unset fields.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.BackoffMultiplier <= 1.0 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = 0.2
	}
	return &RetryPolicy{cfg: cfg}
}

// Retryable reports whether err should be retried, per the tagged-union
// error kind's Retryable() classification. Non-*errs.Error errors are
// treated as retryable (transport-level failures the caller didn't classify).
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Kind.Retryable()
	}
	return true
}

// Do runs op, retrying while Retryable(err) is true and attempts remain. It
// returns the first success or the last failure's error, and honors ctx
// cancellation while sleeping between attempts.
func (p *RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	delay := p.cfg.InitialDelay

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			metrics.RecordRetryAttempt(p.cfg.Name)
			sleep := jitter(delay, p.cfg.JitterFraction)
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * p.cfg.BackoffMultiplier)
			if delay > p.cfg.MaxDelay {
				delay = p.cfg.MaxDelay
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) {
			return err
		}
	}
	return lastErr
}

// jitter returns d adjusted by a uniform random factor in
// [-fraction, +fraction], never going negative.
func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * fraction
	out := time.Duration(float64(d) * (1 + delta))
	if out < 0 {
		return 0
	}
	return out
}
