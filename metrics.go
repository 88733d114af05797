package sessionkit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "token_refresh_total",
			Help:      "Access-token refresh calls issued to the auth service.",
		},
	)

	refreshCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "token_refresh_coalesced_total",
			Help:      "Refresh requests that joined an already in-flight refresh.",
		},
	)

	sessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "sessions_expired_total",
			Help:      "Sessions cleared after an exhausted refresh.",
		},
	)

	migrationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "migration_runs_total",
			Help:      "Saved-property migration attempts by result.",
		},
		[]string{"result"},
	)

	migrationItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "migration_items_total",
			Help:      "Saved properties attempted during migration by result.",
		},
		[]string{"result"},
	)

	savedOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sessionkit",
			Name:      "saved_ops_total",
			Help:      "Saved-property operations by kind and backing store.",
		},
		[]string{"op", "source"},
	)
)
