package plan

import "context"

// Repository is the plan half of the persistence gateway.
type Repository interface {
	// GetActivePlan returns the plan row currently pointed at by the
	// active pointer for the given name. The error satisfies
	// errors.IsNotFoundError when no active plan exists.
	GetActivePlan(ctx context.Context, name string) (*StoredPlan, error)

	// GetPlanSteps returns the notification rows of a plan.
	GetPlanSteps(ctx context.Context, planID uint) ([]StoredStep, error)

	// PlanIDByName resolves the newest plan row for a name.
	PlanIDByName(ctx context.Context, name string) (uint, error)

	// Priorities returns all priorities keyed by name.
	Priorities(ctx context.Context) (map[string]uint, error)

	// Roles returns all target roles keyed by name.
	Roles(ctx context.Context) (map[string]uint, error)

	// AllowedRolesForTarget resolves a step target by name and returns,
	// per permitted role id, the id of the same-named target of the
	// kind that role applies to. A user and a team may share a name;
	// the role decides which row the step binds to. The error satisfies
	// errors.IsNotFoundError when no target carries the name.
	AllowedRolesForTarget(ctx context.Context, targetName string) (map[uint]uint, error)

	// ReplacePlan writes a new plan row with its steps and moves the
	// active pointer to it, atomically. Prior plan rows for the same
	// name are kept as history; the pointer move supersedes them.
	ReplacePlan(ctx context.Context, rec Record, steps []ResolvedStep) (uint, error)

	// RemoveActivePointer deactivates a plan by dropping its active
	// pointer. The plan row itself is retained.
	RemoveActivePointer(ctx context.Context, planID uint) error
}
