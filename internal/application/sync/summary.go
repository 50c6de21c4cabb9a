package sync

import "time"

// PassSummary is the outcome of one reconciliation pass. The status
// endpoint serves the most recent one.
type PassSummary struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`

	// Aborted is set when the pass stopped before any reconciliation,
	// e.g. on an empty roster snapshot.
	Aborted string `json:"aborted,omitempty"`

	UsersFound   int `json:"users_found"`
	TeamsFound   int `json:"teams_found"`
	UsersAdded   int `json:"users_added"`
	UsersUpdated int `json:"users_updated"`
	UsersFailed  int `json:"users_failed"`
	TeamsAdded   int `json:"teams_added"`
	TeamsFailed  int `json:"teams_failed"`
	PlansCreated int `json:"plans_created"`
	PlansFailed  int `json:"plans_failed"`
	UsersPruned  int `json:"users_pruned"`
	TeamsPruned  int `json:"teams_pruned"`
}
