package sessionkit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/glodinasflexwork/sessionkit/internal/api"
	"github.com/glodinasflexwork/sessionkit/internal/localstore"
	"github.com/glodinasflexwork/sessionkit/internal/retry"
	"github.com/glodinasflexwork/sessionkit/internal/types"
)

// Source identifies the backing store serving the collection.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// SavedProperties is the user's saved-property collection. While anonymous
// every operation targets local storage; while signed in, the collection
// service. The routing decision is re-evaluated on every call, so a
// mid-session login redirects subsequent calls without restart.
type SavedProperties struct {
	mgr   *SessionManager
	base  string // collection service base URL
	local *localstore.Store
	log   zerolog.Logger
	retry retry.Config

	unsub      Unsubscribe
	migrating  uint32 // single-flight guard for migration
	closedOnce uint32
}

// SavedOption configures SavedProperties during construction.
type SavedOption func(*SavedProperties) error

// WithLocalStore replaces the default file-backed local store.
func WithLocalStore(s *localstore.Store) SavedOption {
	return func(sp *SavedProperties) error {
		if s == nil {
			return fmt.Errorf("local store must not be nil")
		}
		sp.local = s
		return nil
	}
}

// WithRetryAttempts bounds how often a recoverable remote failure is
// retried per operation.
func WithRetryAttempts(n int) SavedOption {
	return func(sp *SavedProperties) error {
		if n <= 0 {
			return fmt.Errorf("retry attempts must be > 0")
		}
		sp.retry.MaxAttempts = n
		return nil
	}
}

// NewSavedProperties builds the collection facade on top of mgr. It
// subscribes to auth-state changes so locally saved items are migrated to
// the account when the user signs in. Call Close to unsubscribe.
func NewSavedProperties(mgr *SessionManager, collectionBaseURL string, opts ...SavedOption) (*SavedProperties, error) {
	if mgr == nil {
		return nil, fmt.Errorf("session manager must not be nil")
	}
	if collectionBaseURL == "" {
		return nil, fmt.Errorf("collection base URL must not be empty")
	}

	sp := &SavedProperties{
		mgr:   mgr,
		base:  collectionBaseURL,
		log:   mgr.log.With().Str("component", "saved-properties").Logger(),
		retry: retry.Config{MaxAttempts: 3, InitialInterval: 100 * time.Millisecond},
	}
	for _, opt := range opts {
		if err := opt(sp); err != nil {
			return nil, err
		}
	}
	if sp.local == nil {
		sp.local = localstore.New(mgr.storageDir, sp.log)
	}

	// Anonymous-to-authenticated transitions trigger migration. Failures are
	// absorbed so they can never block a login from completing.
	sp.unsub = mgr.OnAuthStateChange(func(authenticated bool) {
		if authenticated {
			sp.migrate(context.Background())
		}
	})
	return sp, nil
}

// Source reports which store is currently authoritative. Pure function of
// the session's authentication state.
func (sp *SavedProperties) Source() Source {
	if sp.mgr.IsAuthenticated() {
		return SourceRemote
	}
	return SourceLocal
}

// List returns the collection in insertion order. While signed in the
// remote store is authoritative; if it is unreachable the local copy is
// served so the page still renders.
func (sp *SavedProperties) List(ctx context.Context) ([]SavedItem, error) {
	if !sp.mgr.IsAuthenticated() {
		savedOpsTotal.WithLabelValues("list", string(SourceLocal)).Inc()
		return sp.local.List(), nil
	}
	sp.maybeMigrate(ctx)

	var items []types.SavedItem
	err := retry.Do(ctx, sp.retry, func(ctx context.Context) error {
		var e error
		items, e = api.ListSavedItems(ctx, sp.mgr.authHTTP, sp.base)
		return e
	})
	if err != nil {
		sp.log.Warn().Err(err).Msg("listing remote saved properties failed, serving local copy")
		return sp.local.List(), nil
	}
	savedOpsTotal.WithLabelValues("list", string(SourceRemote)).Inc()
	return items, nil
}

// Save upserts the property into the active store, stamping SavedAt at call
// time. Saving an already-saved itemID replaces its snapshot; it never
// duplicates.
func (sp *SavedProperties) Save(ctx context.Context, itemID string, snapshot PropertySnapshot) error {
	if itemID == "" {
		return fmt.Errorf("item ID is required")
	}
	item := types.SavedItem{ItemID: itemID, Snapshot: snapshot, SavedAt: time.Now().UTC()}

	if !sp.mgr.IsAuthenticated() {
		sp.local.Upsert(item)
		savedOpsTotal.WithLabelValues("save", string(SourceLocal)).Inc()
		return nil
	}
	sp.maybeMigrate(ctx)

	err := retry.Do(ctx, sp.retry, func(ctx context.Context) error {
		_, e := api.UpsertSavedItem(ctx, sp.mgr.authHTTP, sp.base, item)
		return e
	})
	if err != nil {
		return err
	}
	savedOpsTotal.WithLabelValues("save", string(SourceRemote)).Inc()
	return nil
}

// Remove deletes the property from the active store. Idempotent.
func (sp *SavedProperties) Remove(ctx context.Context, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("item ID is required")
	}

	if !sp.mgr.IsAuthenticated() {
		sp.local.Remove(itemID)
		savedOpsTotal.WithLabelValues("remove", string(SourceLocal)).Inc()
		return nil
	}
	sp.maybeMigrate(ctx)

	err := retry.Do(ctx, sp.retry, func(ctx context.Context) error {
		return api.DeleteSavedItem(ctx, sp.mgr.authHTTP, sp.base, itemID)
	})
	if err != nil {
		return err
	}
	savedOpsTotal.WithLabelValues("remove", string(SourceRemote)).Inc()
	return nil
}

// Count returns the number of saved properties in the active store.
func (sp *SavedProperties) Count(ctx context.Context) (int, error) {
	items, err := sp.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// IsSaved reports whether itemID is present in the active store.
func (sp *SavedProperties) IsSaved(ctx context.Context, itemID string) (bool, error) {
	items, err := sp.List(ctx)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

// Clear removes every saved property from the active store.
func (sp *SavedProperties) Clear(ctx context.Context) error {
	if !sp.mgr.IsAuthenticated() {
		sp.local.Clear()
		return nil
	}
	items, err := sp.List(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := sp.Remove(ctx, it.ItemID); err != nil {
			return err
		}
	}
	return nil
}

// StorageDegraded reports that the anonymous collection is held in memory
// only. Never blocks an operation.
func (sp *SavedProperties) StorageDegraded() bool {
	return sp.local.Degraded()
}

// Close unsubscribes from auth-state changes. Safe to call multiple times.
func (sp *SavedProperties) Close() error {
	if !atomic.CompareAndSwapUint32(&sp.closedOnce, 0, 1) {
		return nil
	}
	if sp.unsub != nil {
		sp.unsub()
	}
	return nil
}
