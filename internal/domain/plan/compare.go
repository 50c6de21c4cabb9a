package plan

import "maps"

// Resolver resolves store ids back to names during comparison. It is
// built once per sync pass from the pass's lookup context.
type Resolver interface {
	RoleName(id uint) (string, bool)
	PriorityName(id uint) (string, bool)
	TargetName(id uint) (string, bool)
}

// Validate reports whether a stored plan still structurally matches its
// canonical spec.
//
// The stored plan is normalized before comparison: volatile fields
// (creation time, surrogate ids, the active-pointer name, tracking and
// aggregation metadata) are never consulted; only the fields derivation
// controls are. Steps are grouped by level and each level is compared as
// an order-insensitive multiset after resolving foreign keys back to
// names, so two alternatives stored in either order validate equally. An
// absent stored plan, a missing or extra level, an unresolvable id or
// any field mismatch makes the plan invalid.
func Validate(spec Spec, stored *StoredPlan, steps []StoredStep, r Resolver) bool {
	if stored == nil {
		return false
	}
	if stored.Description != spec.Description || stored.StepCount != spec.StepCount {
		return false
	}

	grouped := make(map[int][]StoredStep)
	for _, s := range steps {
		grouped[s.Step] = append(grouped[s.Step], s)
	}
	if len(grouped) != len(spec.Steps) {
		return false
	}

	for i, level := range spec.Steps {
		storedLevel, ok := grouped[i+1]
		if !ok || len(storedLevel) != len(level) {
			return false
		}

		canonical := make(map[Step]int, len(level))
		for _, s := range level {
			canonical[s]++
		}

		normalized := make(map[Step]int, len(storedLevel))
		for _, s := range storedLevel {
			ns, ok := normalizeStep(s, r)
			if !ok {
				return false
			}
			normalized[ns]++
		}

		if !maps.Equal(canonical, normalized) {
			return false
		}
	}

	return true
}

// normalizeStep strips surrogate fields from a stored step and resolves
// its foreign keys to names.
func normalizeStep(s StoredStep, r Resolver) (Step, bool) {
	role, ok := r.RoleName(s.RoleID)
	if !ok {
		return Step{}, false
	}
	priority, ok := r.PriorityName(s.PriorityID)
	if !ok {
		return Step{}, false
	}
	target, ok := r.TargetName(s.TargetID)
	if !ok {
		return Step{}, false
	}
	return Step{
		Role:     role,
		Priority: priority,
		Target:   target,
		Template: s.Template,
		Wait:     s.Wait,
		Repeat:   s.Repeat,
	}, true
}
