package sfmc

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AuthError indicates SFMC rejected the credentials or the token is not
// accepted. The user must fix the configuration and re-initialize.
type AuthError struct {
	Status int
	Msg    string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed (HTTP %d): %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("authentication failed: %s", e.Msg)
}

// ValidationError indicates a malformed search request. It is returned
// before any HTTP call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Msg)
}

// TransientError indicates a timeout or connectivity failure. The operation
// is safe to retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient network error: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// UpstreamError carries a non-2xx SFMC response, surfaced verbatim.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("SFMC returned HTTP %d: %s", e.Status, e.Body)
}

// isTransient reports whether a transport-level error should be classified
// as a TransientError rather than surfaced as-is.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// transportError wraps a failed HTTP round trip into the error taxonomy.
func transportError(op string, err error) error {
	if isTransient(err) {
		return &TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
