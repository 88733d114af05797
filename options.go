package sessionkit

// This file defines functional options that configure the SessionManager
// during construction. Keeping them in a standalone file makes it easy to
// discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/glodinasflexwork/sessionkit/internal/tokenstore"
)

// Option configures a SessionManager during construction in New.
//
// Options are applied before the bearer-token transport wrapper is
// installed, so transport-related options (like debug logging) are placed
// underneath it. Options must be deterministic and side-effect free.
type Option func(*SessionManager) error

// WithHTTPClient replaces the underlying http.Client. The client is used as
// given for unauthenticated calls (login, register, refresh); authenticated
// calls go through a copy wrapped with the bearer/refresh transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *SessionManager) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		m.http = hc
		return nil
	}
}

// WithHTTPTimeout sets the http.Client timeout used for every request.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net bounding the total time for one request. A refresh call
// that hits it is treated like a rejected refresh. The value must be
// greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(m *SessionManager) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		m.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the transport so each request/response is dumped to
// the log when enabled is true. Not for production use: dumps include
// headers and bodies.
func WithDebugLogging(enabled bool) Option {
	return func(m *SessionManager) error {
		if enabled {
			m.http.Transport = &debugTransport{base: m.http.Transport}
		}
		return nil
	}
}

// WithTokenStore replaces the default file-backed token store. Useful for
// tests (MemStore) and hosts that manage credential storage themselves.
func WithTokenStore(s tokenstore.Store) Option {
	return func(m *SessionManager) error {
		if s == nil {
			return fmt.Errorf("token store must not be nil")
		}
		m.tokens = s
		return nil
	}
}

// WithStorageDir sets the directory for the default token store and, unless
// overridden, for the local saved-properties store.
func WithStorageDir(dir string) Option {
	return func(m *SessionManager) error {
		if dir == "" {
			return fmt.Errorf("storage dir must not be empty")
		}
		m.storageDir = dir
		return nil
	}
}

// WithWatchInterval sets how often the token store is polled for changes
// made by another process. Zero disables the watcher.
func WithWatchInterval(d time.Duration) Option {
	return func(m *SessionManager) error {
		if d < 0 {
			return fmt.Errorf("watch interval must be >= 0")
		}
		m.watchInterval = d
		return nil
	}
}

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *SessionManager) error {
		m.log = log
		return nil
	}
}
