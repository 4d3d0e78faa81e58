package syncrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxElapsedTime: 2 * time.Second, InitialInterval: time.Millisecond}, "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsImmediatelyOnAuthError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxElapsedTime: 2 * time.Second, InitialInterval: time.Millisecond}, "test", func() error {
		attempts++
		return transport.ErrAuthenticationRequired
	})
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryGivesUpAfterMaxElapsedTime(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxElapsedTime: 20 * time.Millisecond, InitialInterval: time.Millisecond}, "test", func() error {
		attempts++
		return errors.New("persistent transient failure")
	})
	assert.Error(t, err)
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Greater(t, attempts, 0)
}
