package sessionkit

import (
	"context"
	"sync/atomic"

	"github.com/glodinasflexwork/sessionkit/internal/api"
	"github.com/glodinasflexwork/sessionkit/internal/retry"
)

// maybeMigrate retries a previously incomplete migration. Cheap in the
// steady state: local storage is empty after a fully successful migration.
func (sp *SavedProperties) maybeMigrate(ctx context.Context) {
	if sp.local.Count() == 0 {
		return
	}
	sp.migrate(ctx)
}

// migrate transfers every locally saved item into the account's collection,
// then clears local storage, but only when every item made it across.
// Upsert semantics keep the transfer idempotent, so a partial failure
// leaves the local copy intact and the whole batch is retried on the next
// authenticated session start. Failures are logged, never surfaced: a
// broken migration must not break a login.
//
// Single-flight: a second transition event while a migration is running is
// ignored.
func (sp *SavedProperties) migrate(ctx context.Context) {
	if !atomic.CompareAndSwapUint32(&sp.migrating, 0, 1) {
		return
	}
	defer atomic.StoreUint32(&sp.migrating, 0)

	if !sp.mgr.IsAuthenticated() {
		return
	}
	items := sp.local.List()
	if len(items) == 0 {
		return
	}

	failed := 0
	for _, item := range items {
		item := item
		err := retry.Do(ctx, sp.retry, func(ctx context.Context) error {
			_, e := api.UpsertSavedItem(ctx, sp.mgr.authHTTP, sp.base, item)
			return e
		})
		if err != nil {
			failed++
			migrationItemsTotal.WithLabelValues("failed").Inc()
			sp.log.Warn().Err(err).Str("item_id", item.ItemID).Msg("migrating saved property failed")
			continue
		}
		migrationItemsTotal.WithLabelValues("migrated").Inc()
	}

	if failed > 0 {
		migrationRunsTotal.WithLabelValues("partial").Inc()
		sp.log.Warn().Int("failed", failed).Int("total", len(items)).
			Msg("saved-property migration incomplete, keeping local copy")
		return
	}

	sp.local.Clear()
	migrationRunsTotal.WithLabelValues("ok").Inc()
	sp.log.Info().Int("migrated", len(items)).Msg("saved properties migrated to account")
}
