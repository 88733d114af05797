package sessionkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glodinasflexwork/sessionkit/internal/tokenstore"
	"github.com/glodinasflexwork/sessionkit/internal/types"
)

// fakeServices plays both the auth service and the collection service behind
// one httptest server. The expected access token can be rotated out from
// under the client to simulate expiry.
type fakeServices struct {
	mu sync.Mutex

	// auth
	email            string
	password         string
	access           string // token the server currently accepts
	refresh          string
	gen              int
	loginCalls       int
	refreshCalls     int
	refreshDelay     time.Duration
	rejectRefresh    bool
	profileAlways401 bool
	duplicateEmail   string

	// collection
	order       []string
	items       map[string]types.SavedItem
	upsertFail  map[string]bool // itemID -> always answer 500
	upsertCalls int
	listFail    bool

	user types.UserProfile
}

func newFakeServices(t *testing.T) (*fakeServices, *httptest.Server) {
	t.Helper()
	f := &fakeServices{
		email:      "jan@example.com",
		password:   "geheim123",
		access:     "access-1",
		refresh:    "refresh-1",
		items:      map[string]types.SavedItem{},
		upsertFail: map[string]bool{},
		user: types.UserProfile{
			ID:            "user-1",
			Email:         "jan@example.com",
			Username:      "jan",
			FirstName:     "Jan",
			LastName:      "de Vries",
			EmailVerified: true,
		},
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv
}

// expireAccess rotates the token the server accepts, so the one the client
// holds stops working until it refreshes.
func (f *fakeServices) expireAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.access = "access-" + strings.Repeat("x", f.gen)
}

func (f *fakeServices) serverItems() []types.SavedItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.SavedItem, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.items[id])
	}
	return out
}

func (f *fakeServices) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", f.handleLogin)
	mux.HandleFunc("/register", f.handleRegister)
	mux.HandleFunc("/refresh", f.handleRefresh)
	mux.HandleFunc("/profile", f.handleProfile)
	mux.HandleFunc("/saved-items", f.handleItems)
	mux.HandleFunc("/saved-items/", f.handleItemByID)
	return mux
}

func (f *fakeServices) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if req.Email != f.email || req.Password != f.password {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(types.LoginResponse{Token: f.access, RefreshToken: f.refresh})
}

func (f *fakeServices) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Email == f.duplicateEmail {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"An account with this email already exists"}`))
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"id":"user-2"}`))
}

func (f *fakeServices) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.rejectRefresh || r.Header.Get("Authorization") != "Bearer "+f.refresh {
		f.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"refresh token revoked"}`))
		return
	}
	f.refreshCalls++
	token := f.access
	delay := f.refreshDelay
	f.mu.Unlock()

	time.Sleep(delay)
	_ = json.NewEncoder(w).Encode(types.RefreshResponse{AccessToken: token})
}

func (f *fakeServices) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+f.access
}

func (f *fakeServices) handleProfile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	always401 := f.profileAlways401
	user := f.user
	f.mu.Unlock()
	if always401 || !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"access token expired"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(types.ProfileResponse{User: user})
}

func (f *fakeServices) handleItems(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		fail := f.listFail
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(types.ListSavedItemsResponse{Items: f.serverItems()})
	case http.MethodPost:
		var req types.UpsertSavedItemRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.upsertCalls++
		if f.upsertFail[req.ItemID] {
			f.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
			return
		}
		item := types.SavedItem{ItemID: req.ItemID, Snapshot: req.Snapshot, SavedAt: req.SavedAt}
		if _, exists := f.items[req.ItemID]; !exists {
			f.order = append(f.order, req.ItemID)
		}
		f.items[req.ItemID] = item
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.UpsertSavedItemResponse{Item: item})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeServices) handleItemByID(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/saved-items/")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.items[id]; !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(f.items, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// newTestManager builds a manager with in-memory tokens and the watcher
// disabled. Tests that need durability or watching construct their own.
func newTestManager(t *testing.T, srv *httptest.Server, opts ...Option) *SessionManager {
	t.Helper()
	base := []Option{
		WithTokenStore(tokenstore.NewMemStore()),
		WithWatchInterval(0),
		WithStorageDir(t.TempDir()),
	}
	mgr, err := New(srv.URL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func newTestSaved(t *testing.T, mgr *SessionManager, srv *httptest.Server, opts ...SavedOption) *SavedProperties {
	t.Helper()
	base := []SavedOption{WithRetryAttempts(1)}
	sp, err := NewSavedProperties(mgr, srv.URL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewSavedProperties: %v", err)
	}
	t.Cleanup(func() { _ = sp.Close() })
	return sp
}

func mustLogin(t *testing.T, mgr *SessionManager) *Session {
	t.Helper()
	sess, err := mgr.Login(context.Background(), "jan@example.com", "geheim123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return sess
}

func strPtr(s string) *string { return &s }
