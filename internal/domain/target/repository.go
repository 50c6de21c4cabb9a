package target

import "context"

// Repository is the target half of the persistence gateway. All name
// arguments are treated as data by implementations, never interpolated
// into query text.
type Repository interface {
	// Modes returns the known contact modes keyed by name.
	Modes(ctx context.Context) (map[string]uint, error)

	// ListActiveUsers returns every active user target with its contact
	// destinations keyed by mode name.
	ListActiveUsers(ctx context.Context) (map[string]Contacts, error)

	// ListActiveTeamNames returns the names of all active team targets.
	ListActiveTeamNames(ctx context.Context) (map[string]struct{}, error)

	// NamesByID resolves target ids back to names.
	NamesByID(ctx context.Context, ids []uint) (map[uint]string, error)

	// UpsertTarget inserts a target or reactivates an existing one, and
	// returns its id.
	UpsertTarget(ctx context.Context, name string, kind Kind) (uint, error)

	// SetActive flips the active flag of a target.
	SetActive(ctx context.Context, name string, kind Kind, active bool) error

	// DeleteTarget hard-deletes a target. When dependent rows still
	// reference it the returned error satisfies errors.IsConflictError.
	DeleteTarget(ctx context.Context, name string, kind Kind) error

	// InsertContact upserts a contact destination for a target id.
	InsertContact(ctx context.Context, targetID uint, modeID uint, destination string) error

	// UpdateContact replaces the destination stored for (target, mode).
	UpdateContact(ctx context.Context, name string, modeID uint, destination string) error

	// DeleteContact removes the (target, mode) contact row.
	DeleteContact(ctx context.Context, name string, modeID uint) error
}
