// Package roster defines the read contract against the upstream on-call
// roster service, the source of truth for which users and teams exist.
package roster

import "context"

// Client fetches user and team snapshots from the roster service.
//
// Both operations are total: transport or decoding failures are logged by
// implementations and surface as empty results. Callers must treat an
// empty result as "unable to determine", not as "nothing exists
// upstream".
type Client interface {
	// FetchUsers returns active users keyed by name, each with contact
	// destinations keyed by mode. Phone contacts are already normalized.
	FetchUsers(ctx context.Context) map[string]map[string]string

	// FetchTeams returns the names of active teams.
	FetchTeams(ctx context.Context) []string
}
