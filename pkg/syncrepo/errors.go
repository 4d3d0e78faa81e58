package syncrepo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrAuthFailed is the terminal error for transport operations rejected on
// credentials: spec.md §4.7/§7 requires authentication failure to surface
// immediately rather than be retried.
var ErrAuthFailed = errors.New("syncrepo: authentication failed")

// TransportError wraps a transient network/git failure that withRetry gave
// up on after its bounded backoff budget, spec.md §7's SyncTransport
// category.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("syncrepo: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

func isAuthError(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrInvalidAuthMethod)
}
