// Package sessionkit is the client-side session and saved-properties SDK for
// the brokerage website. It manages the access/refresh credential pair
// against the auth service, silently renews expired access tokens, and
// exposes a saved-property collection that works both anonymously (local
// storage) and signed in (collection service), migrating local items to the
// account exactly once on login.
package sessionkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glodinasflexwork/sessionkit/internal/api"
	"github.com/glodinasflexwork/sessionkit/internal/apierrors"
	"github.com/glodinasflexwork/sessionkit/internal/tokenstore"
	"github.com/glodinasflexwork/sessionkit/internal/types"
)

// AuthState is the session manager's externally observable state.
type AuthState int

const (
	// StateAnonymous means no authenticated user; collection operations
	// use local storage.
	StateAnonymous AuthState = iota

	// StateAuthenticating means a login attempt is in flight.
	StateAuthenticating

	// StateAuthenticated means a user is signed in and holds an access
	// token.
	StateAuthenticated

	// StateRefreshPending means stored credentials exist but the profile
	// has not been (re)validated yet.
	StateRefreshPending
)

func (s AuthState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshPending:
		return "refresh-pending"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Unsubscribe removes a previously registered auth-state callback.
type Unsubscribe func()

// SessionManager owns the authenticated-user identity and the session state
// machine. One long-lived instance is shared by all consumers; obtain it via
// dependency injection, not a global.
type SessionManager struct {
	authBaseURL string
	storageDir  string
	tokens      tokenstore.Store
	log         zerolog.Logger

	http     *http.Client // unauthenticated calls: login, register, refresh
	authHTTP *http.Client // bearer + 401-refresh transport: profile, collection

	watchInterval time.Duration
	watchStop     chan struct{}
	closedOnce    uint32

	mu          sync.Mutex
	state       AuthState
	user        *types.UserProfile
	refreshDone chan struct{} // non-nil while a refresh is in flight
	refreshErr  error
	subs        map[string]func(authenticated bool)
}

// New constructs a SessionManager talking to the auth service at
// authBaseURL. Call Init to restore a persisted session and start the
// cross-process watcher, and Close when done.
func New(authBaseURL string, opts ...Option) (*SessionManager, error) {
	if authBaseURL == "" {
		return nil, fmt.Errorf("auth base URL must not be empty")
	}

	m := &SessionManager{
		authBaseURL:   authBaseURL,
		log:           log.With().Str("component", "sessionkit").Logger(),
		http:          &http.Client{Timeout: 30 * time.Second},
		watchInterval: 2 * time.Second,
		state:         StateAnonymous,
		subs:          map[string]func(bool){},
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if m.storageDir == "" {
		m.storageDir = defaultStorageDir()
	}
	if m.tokens == nil {
		m.tokens = tokenstore.NewFileStore(m.storageDir, m.log)
	}

	// Authenticated calls go through a copy of the client whose transport
	// injects the current bearer token and owns the 401/refresh/retry-once
	// policy. The unauthenticated client stays bare so refresh itself never
	// recurses into it.
	authClient := *m.http
	authClient.Transport = &authTransport{mgr: m, base: m.http.Transport}
	m.authHTTP = &authClient

	return m, nil
}

// Init restores a persisted session, if any, and starts the token-store
// watcher. A stored access token is validated by fetching the profile; a
// 401 triggers one silent refresh, and a failed refresh settles the manager
// back to anonymous without returning an error. Only unexpected transport
// problems keep the stored tokens for a later retry.
func (m *SessionManager) Init(ctx context.Context) error {
	if _, ok := m.tokens.Get(tokenstore.KeyAccessToken); ok {
		m.mu.Lock()
		m.state = StateRefreshPending
		m.mu.Unlock()

		user, err := api.GetProfile(ctx, m.authHTTP, m.authBaseURL)
		switch {
		case err == nil:
			m.setAuthenticated(user)
		case errors.Is(err, apierrors.ErrSessionExpired) || errors.Is(err, apierrors.ErrUnauthorized):
			// Refresh exhausted; tokens already cleared. Fails closed.
			m.settleAnonymous()
		default:
			// Transient failure: stay anonymous but keep the stored
			// tokens so a later Init or Refresh can succeed.
			m.log.Warn().Err(err).Msg("session restore failed, staying anonymous")
			m.settleAnonymous()
		}
	}

	m.startWatcher()
	return nil
}

// Login exchanges credentials for a session. On success both tokens are
// persisted and the profile is fetched; on failure the session stays
// unauthenticated and previously stored tokens are untouched.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Session, error) {
	m.mu.Lock()
	prev := m.state
	m.state = StateAuthenticating
	m.mu.Unlock()

	lr, err := api.Login(ctx, m.http, m.authBaseURL, email, password)
	if err != nil {
		m.restoreState(prev)
		return nil, err
	}

	m.tokens.Set(tokenstore.KeyAccessToken, lr.Token)
	m.tokens.Set(tokenstore.KeyRefreshToken, lr.RefreshToken)

	user, err := api.GetProfile(ctx, m.authHTTP, m.authBaseURL)
	if err != nil {
		// The tokens are valid; only the profile fetch failed. Surface
		// the error and let the caller retry via Refresh.
		m.restoreState(prev)
		return nil, err
	}

	m.setAuthenticated(user)
	return &Session{User: user}, nil
}

// Register creates an account. It never authenticates: the auth service
// requires out-of-band email verification before the first login.
func (m *SessionManager) Register(ctx context.Context, firstName, lastName, username, email, password string) (*RegistrationResult, error) {
	return api.Register(ctx, m.http, m.authBaseURL, types.RegisterRequest{
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
		Email:     email,
		Password:  password,
	})
}

// Logout clears the stored tokens and the session. Always succeeds and is
// idempotent; subscribers are notified only when a signed-in session was
// actually ended.
func (m *SessionManager) Logout() {
	m.tokens.ClearAll()

	m.mu.Lock()
	wasAuthenticated := m.user != nil
	m.user = nil
	m.state = StateAnonymous
	var subs []func(bool)
	if wasAuthenticated {
		subs = m.subscribersLocked()
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(false)
	}
}

// UpdateUser merges the non-nil fields of update into the current profile.
// Local only: used after a known-successful server mutation to avoid a
// redundant fetch. No-op while anonymous.
func (m *SessionManager) UpdateUser(update ProfileUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return
	}
	if update.Email != nil {
		m.user.Email = *update.Email
	}
	if update.FirstName != nil {
		m.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		m.user.LastName = *update.LastName
	}
	if update.DisplayName != nil {
		m.user.DisplayName = *update.DisplayName
	}
	if update.EmailVerified != nil {
		m.user.EmailVerified = *update.EmailVerified
	}
	if update.Preferences != nil {
		prefs := *update.Preferences
		m.user.Preferences = &prefs
	}
}

// Refresh forces a token rotation and profile re-fetch. Exposed for manual
// retry; the transport performs the same rotation automatically on 401.
// A rejected or timed-out rotation clears the session and returns
// ErrSessionExpired.
func (m *SessionManager) Refresh(ctx context.Context) (*Session, error) {
	if err := m.rotateAccessToken(ctx); err != nil {
		return nil, err
	}
	user, err := api.GetProfile(ctx, m.authHTTP, m.authBaseURL)
	if err != nil {
		return nil, err
	}
	m.setAuthenticated(user)
	return &Session{User: user}, nil
}

// OnAuthStateChange registers fn to run on every authenticated/anonymous
// boundary transition. It does not fire for internal updates (token
// rotation, profile merges). Callbacks run synchronously on the goroutine
// driving the transition and must not block for long.
func (m *SessionManager) OnAuthStateChange(fn func(authenticated bool)) Unsubscribe {
	id := uuid.NewString()
	m.mu.Lock()
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Session returns the current session snapshot.
func (m *SessionManager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return &Session{}
	}
	user := *m.user
	return &Session{User: &user}
}

// CurrentUser returns a copy of the signed-in user's profile, or nil.
func (m *SessionManager) CurrentUser() *UserProfile {
	return m.Session().User
}

// IsAuthenticated reports whether a user is signed in.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// State returns the current auth state.
func (m *SessionManager) State() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StorageDegraded reports that tokens are held in memory only and will not
// survive a restart. Worth at most a non-blocking warning in the UI.
func (m *SessionManager) StorageDegraded() bool {
	return m.tokens.Degraded()
}

// Close stops the token-store watcher. Safe to call multiple times.
func (m *SessionManager) Close() error {
	if !atomic.CompareAndSwapUint32(&m.closedOnce, 0, 1) {
		return nil
	}
	if m.watchStop != nil {
		close(m.watchStop)
	}
	return nil
}

// ------------------------------
// internals
// ------------------------------

// rotateAccessToken performs one refresh call, coalescing concurrent
// callers onto a single in-flight request so a burst of 401s rotates the
// token exactly once. Any failure (rejection, timeout, transport error)
// ends the session.
func (m *SessionManager) rotateAccessToken(ctx context.Context) error {
	m.mu.Lock()
	if done := m.refreshDone; done != nil {
		m.mu.Unlock()
		refreshCoalescedTotal.Inc()
		select {
		case <-done:
			m.mu.Lock()
			err := m.refreshErr
			m.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	m.refreshDone = done
	m.mu.Unlock()

	err := m.doRotate(ctx)

	m.mu.Lock()
	m.refreshErr = err
	m.refreshDone = nil
	m.mu.Unlock()
	close(done)
	return err
}

func (m *SessionManager) doRotate(ctx context.Context) error {
	refreshTotal.Inc()

	refreshToken, ok := m.tokens.Get(tokenstore.KeyRefreshToken)
	if !ok {
		m.expireSession(fmt.Errorf("no refresh token stored"))
		return &apierrors.ServiceError{Err: apierrors.ErrSessionExpired}
	}

	rr, err := api.Refresh(ctx, m.http, m.authBaseURL, refreshToken)
	if err != nil {
		m.expireSession(err)
		if errors.Is(err, apierrors.ErrSessionExpired) {
			return err
		}
		return &apierrors.ServiceError{Err: apierrors.ErrSessionExpired}
	}

	m.tokens.Set(tokenstore.KeyAccessToken, rr.AccessToken)

	m.mu.Lock()
	if m.user != nil {
		m.state = StateAuthenticated
	}
	m.mu.Unlock()
	return nil
}

// expireSession logs the refresh failure (never surfaced raw to the user)
// and clears the session.
func (m *SessionManager) expireSession(cause error) {
	sessionsExpiredTotal.Inc()
	m.log.Info().Err(cause).Msg("refresh failed, clearing session")
	m.Logout()
}

func (m *SessionManager) setAuthenticated(user *types.UserProfile) {
	m.mu.Lock()
	wasAuthenticated := m.user != nil
	m.user = user
	m.state = StateAuthenticated
	var subs []func(bool)
	if !wasAuthenticated {
		subs = m.subscribersLocked()
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(true)
	}
}

// settleAnonymous resets transient states (authenticating, refresh-pending)
// without firing callbacks; there was no authenticated session to end.
func (m *SessionManager) settleAnonymous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		m.state = StateAnonymous
	}
}

func (m *SessionManager) restoreState(prev AuthState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticating {
		m.state = prev
	}
}

func (m *SessionManager) subscribersLocked() []func(bool) {
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

// startWatcher polls the token store for changes made by another process
// ("another tab"). When the access token disappears externally while this
// process believes it is signed in, the session fails closed to anonymous.
func (m *SessionManager) startWatcher() {
	syncer, ok := m.tokens.(tokenstore.Syncer)
	if !ok || m.watchInterval <= 0 {
		return
	}
	m.watchStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(m.watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.watchStop:
				return
			case <-ticker.C:
				if !syncer.Sync() {
					continue
				}
				if _, ok := m.tokens.Get(tokenstore.KeyAccessToken); !ok && m.IsAuthenticated() {
					m.log.Info().Msg("session cleared by another process, signing out")
					m.Logout()
				}
			}
		}
	}()
}

// defaultStorageDir is the per-user location for tokens and the anonymous
// saved-properties file.
func defaultStorageDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "glodinasmakelaardij")
}
