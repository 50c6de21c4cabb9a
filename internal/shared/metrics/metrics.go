// Package metrics exposes the sync daemon's Prometheus metrics and a
// background emitter that periodically logs a snapshot of them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UsersFound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "targetsync_users_found",
			Help: "Number of users in the latest roster snapshot",
		},
	)

	TeamsFound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "targetsync_teams_found",
			Help: "Number of teams in the latest roster snapshot",
		},
	)

	UsersAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_users_added_total",
			Help: "Users inserted into the target store",
		},
	)

	UsersFailedToAdd = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_users_failed_to_add_total",
			Help: "User inserts that failed",
		},
	)

	UsersFailedToUpdate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_users_failed_to_update_total",
			Help: "User contact updates that failed",
		},
	)

	UserContactsUpdated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_user_contacts_updated_total",
			Help: "Contact rows inserted, updated or deleted",
		},
	)

	UsersPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_users_purged_total",
			Help: "User targets deleted or deactivated",
		},
	)

	OthersPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_others_purged_total",
			Help: "Non-user targets deleted or deactivated",
		},
	)

	TeamsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_teams_added_total",
			Help: "Team targets inserted into the target store",
		},
	)

	TeamsFailedToAdd = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_teams_failed_to_add_total",
			Help: "Team inserts that failed",
		},
	)

	PlansCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_plans_created_total",
			Help: "Default plans created or regenerated",
		},
	)

	PlansFailedToCreate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_plans_failed_to_create_total",
			Help: "Plan creations aborted by validation or store errors",
		},
	)

	StoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "targetsync_store_errors_total",
			Help: "Persistence operations that failed and were skipped",
		},
	)

	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "targetsync_pass_duration_seconds",
			Help:    "Duration of one full reconciliation pass",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

// Register registers all sync metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		UsersFound,
		TeamsFound,
		UsersAdded,
		UsersFailedToAdd,
		UsersFailedToUpdate,
		UserContactsUpdated,
		UsersPurged,
		OthersPurged,
		TeamsAdded,
		TeamsFailedToAdd,
		PlansCreated,
		PlansFailedToCreate,
		StoreErrors,
		PassDuration,
	)
}
