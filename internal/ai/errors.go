package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned before any network dial when the reasoning
// service credential is missing. Operators see this, not users.
var ErrNotConfigured = errors.New("reasoning service not configured: missing API key")

// PermissionError means the service rejected the credential. Retrying with
// the same key is pointless; the key needs rotation.
type PermissionError struct {
	Status int
	Body   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("reasoning service rejected credential (status %d): %s", e.Status, e.Body)
}

// QuotaError means the service throttled the request. Retryable after
// backing off.
type QuotaError struct {
	Body string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("reasoning service quota exceeded: %s", e.Body)
}

// TransportError wraps network and timeout failures as well as service-side
// 5xx responses. Retryable.
type TransportError struct {
	err error
}

func (e *TransportError) Error() string { return e.err.Error() }
func (e *TransportError) Unwrap() error { return e.err }

// NewTransportError wraps err as a retryable transport failure.
func NewTransportError(err error) error {
	return &TransportError{err: err}
}

// MalformedResponseError means the service answered but the payload could
// not be parsed into the expected shape. Callers degrade to an empty result.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed reasoning service response: " + e.Reason
}

// IsRetryable reports whether the error is worth retrying: transport
// failures and quota throttling, but not credential or parse problems.
func IsRetryable(err error) bool {
	var transport *TransportError
	var quota *QuotaError
	return errors.As(err, &transport) || errors.As(err, &quota)
}

// IsPermissionDenied reports whether the error is a credential rejection,
// surfaced distinctly so callers can prompt for key rotation instead of
// blindly retrying.
func IsPermissionDenied(err error) bool {
	var perm *PermissionError
	return errors.As(err, &perm)
}

// IsMalformed reports whether the error is an unparseable service response.
func IsMalformed(err error) bool {
	var malformed *MalformedResponseError
	return errors.As(err, &malformed)
}
