// Package apierrors defines the error taxonomy shared by the session and
// saved-properties layers, plus recoverable/irrecoverable classification for
// retry policies.
package apierrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Callers compare with errors.Is; concrete error values may
// carry an endpoint-provided message verbatim (see ServiceError).
var (
	// ErrInvalidCredentials is returned when the auth service rejects a
	// login attempt. The wrapped message is safe to show to the user.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateAccount is returned when registration collides with an
	// existing account.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrSessionExpired is returned after a failed refresh; the session has
	// been cleared and the user must sign in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized is returned when an authenticated call is attempted
	// without a usable access token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetwork marks transient transport-level failures. Retryable.
	ErrNetwork = errors.New("network error")

	// ErrStorageUnavailable signals that durable local storage could not be
	// used and the store degraded to memory. Never fatal.
	ErrStorageUnavailable = errors.New("local storage unavailable")
)

// ServiceError carries the remote service's message verbatim while remaining
// comparable to one of the sentinels above via errors.Is.
type ServiceError struct {
	Err     error  // sentinel classification
	Message string // verbatim message from the service, may be empty
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure with the failing operation.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrNetwork) match any NetworkError.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ValidationError reports field-scoped registration failures. Message is
// the service's own summary when no per-field detail was provided.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return e.Message
		}
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
