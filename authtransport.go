package sessionkit

import (
	"net/http"

	"github.com/glodinasflexwork/sessionkit/internal/apierrors"
	"github.com/glodinasflexwork/sessionkit/internal/tokenstore"
)

// authTransport wraps an http.RoundTripper to inject the current bearer
// token into every request, and is the single place the retry-on-401 policy
// lives: a 401 triggers exactly one (coalesced) refresh and one retry; a
// second 401 ends the session. Call sites never handle 401 themselves.
type authTransport struct {
	mgr  *SessionManager
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.mgr.tokens.Get(tokenstore.KeyAccessToken)
	if !ok {
		// Never issue an authenticated call while anonymous.
		return nil, apierrors.ErrUnauthorized
	}

	resp, err := t.send(req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	// The access token is expired. Rotate it once (concurrent requests
	// that hit 401 simultaneously share this refresh), then retry.
	if err := t.mgr.rotateAccessToken(req.Context()); err != nil {
		return nil, err
	}
	token, ok = t.mgr.tokens.Get(tokenstore.KeyAccessToken)
	if !ok {
		return nil, apierrors.ErrUnauthorized
	}

	resp, err = t.send(req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Still rejected after a fresh token: terminal for this call.
		_ = resp.Body.Close()
		t.mgr.expireSession(apierrors.ErrUnauthorized)
		return nil, apierrors.ErrSessionExpired
	}
	return resp, nil
}

// send clones req with a fresh body and the given bearer token. The clone
// keeps the original request reusable for the post-refresh retry.
func (t *authTransport) send(req *http.Request, token string) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		cloned.Body = body
	}
	cloned.Header.Set("Authorization", "Bearer "+token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(cloned)
}
