package syncrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the backoff applied to transient transport failures
// (spec.md §4.7: "retries transient network errors with bounded backoff").
type RetryPolicy struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
}

// DefaultRetryPolicy mirrors cenkalti/backoff's own recommended defaults,
// capped to a budget short enough that a CLI invocation does not hang
// indefinitely against a dead remote.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxElapsedTime: 2 * time.Minute, InitialInterval: 500 * time.Millisecond}
}

// withRetry runs op under policy, retrying transient errors and stopping
// immediately (no retry) on an authentication failure, per spec.md §7's
// split between SyncTransport (retried) and a terminal auth error.
func withRetry(ctx context.Context, policy RetryPolicy, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	b.MaxElapsedTime = policy.MaxElapsedTime

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isAuthError(err) {
			return backoff.Permanent(fmt.Errorf("%w: %s: %v", ErrAuthFailed, name, err))
		}
		return &TransportError{Op: name, Err: err}
	}, backoff.WithContext(b, ctx))
}
