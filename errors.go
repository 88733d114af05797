package sessionkit

import (
	"errors"

	"github.com/glodinasflexwork/sessionkit/internal/apierrors"
)

// Re-exported sentinels so consumers import only the sessionkit package.
// Compare with errors.Is; error values from login/register carry the
// service's message verbatim in Error().
var (
	ErrInvalidCredentials = apierrors.ErrInvalidCredentials
	ErrDuplicateAccount   = apierrors.ErrDuplicateAccount
	ErrSessionExpired     = apierrors.ErrSessionExpired
	ErrUnauthorized       = apierrors.ErrUnauthorized
	ErrNetwork            = apierrors.ErrNetwork
	ErrStorageUnavailable = apierrors.ErrStorageUnavailable
)

// ValidationError reports field-scoped registration failures.
type ValidationError = apierrors.ValidationError

// IsSessionExpired reports whether err means the session was cleared after
// an exhausted refresh and the user must sign in again.
func IsSessionExpired(err error) bool { return errors.Is(err, ErrSessionExpired) }

// IsNetworkError reports whether err is a transient transport failure worth
// a retry prompt.
func IsNetworkError(err error) bool { return errors.Is(err, ErrNetwork) }
