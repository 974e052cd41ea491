package hubspotdedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxRetries = 8
	DefaultBaseDelay  = 2 * time.Second
	DefaultMaxDelay   = 256 * time.Second
)

// RetryPolicy controls the exponential backoff applied to rate-limited calls.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy waits 2s, 4s, 8s, ... up to 8 retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

func (p RetryPolicy) backOff(ctx context.Context, hint *time.Duration) backoff.BackOff {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay < base {
		maxDelay = base
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = base
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = maxDelay
	eb.MaxElapsedTime = 0
	eb.Reset()

	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(maxRetries))
	if hint != nil {
		b = &retryAfterBackOff{BackOff: b, hint: hint, maxDelay: maxDelay}
	}
	return backoff.WithContext(b, ctx)
}

// retryAfterBackOff stretches the next wait to the server's Retry-After hint,
// never beyond maxDelay.
type retryAfterBackOff struct {
	backoff.BackOff
	hint     *time.Duration
	maxDelay time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	hint := *b.hint
	*b.hint = 0
	if d == backoff.Stop || hint <= d {
		return d
	}
	return min(hint, b.maxDelay)
}

func retryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

// retryNotify is called before each wait with the failed attempt number (1-based) and the delay.
type retryNotify func(attempt int, delay time.Duration, err error)

// retry executes fn, retrying with exponential backoff while it returns HTTP 429.
// A Retry-After longer than the computed delay is honored up to MaxDelay.
// Any other error is returned immediately.
func retry[T any](ctx context.Context, policy RetryPolicy, notify retryNotify, fn func() (T, error)) (T, error) {
	attempt := 0
	var hint time.Duration
	op := func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		result, err := fn()
		if err != nil && !IsRateLimited(err) {
			return result, backoff.Permanent(err)
		}
		hint = retryAfterOf(err)
		return result, err
	}

	result, err := backoff.RetryNotifyWithData(op, policy.backOff(ctx, &hint), func(err error, d time.Duration) {
		attempt++
		if notify != nil {
			notify(attempt, d, err)
		}
	})
	if err != nil && IsRateLimited(err) {
		return result, fmt.Errorf("%w: %w", ErrRateLimitExceeded, err)
	}
	return result, err
}
