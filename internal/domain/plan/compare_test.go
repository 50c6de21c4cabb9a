package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver backs Validate tests with fixed id tables.
type mapResolver struct {
	roles      map[uint]string
	priorities map[uint]string
	targets    map[uint]string
}

func (r mapResolver) RoleName(id uint) (string, bool) {
	name, ok := r.roles[id]
	return name, ok
}

func (r mapResolver) PriorityName(id uint) (string, bool) {
	name, ok := r.priorities[id]
	return name, ok
}

func (r mapResolver) TargetName(id uint) (string, bool) {
	name, ok := r.targets[id]
	return name, ok
}

// storeSpec materializes a spec into stored rows the way the store would
// hand them back, using the resolver's tables in reverse.
func storeSpec(t *testing.T, spec Spec, r mapResolver) (*StoredPlan, []StoredStep) {
	t.Helper()

	lookup := func(table map[uint]string, name string) uint {
		for id, n := range table {
			if n == name {
				return id
			}
		}
		t.Fatalf("no id for %q", name)
		return 0
	}

	stored := &StoredPlan{
		ID:          1,
		Name:        spec.Name,
		Description: spec.Description,
		StepCount:   spec.StepCount,
		ActiveName:  spec.Name,
	}
	var steps []StoredStep
	for i, level := range spec.Steps {
		for _, s := range level {
			steps = append(steps, StoredStep{
				PlanID:     stored.ID,
				Step:       i + 1,
				RoleID:     lookup(r.roles, s.Role),
				PriorityID: lookup(r.priorities, s.Priority),
				TargetID:   lookup(r.targets, s.Target),
				Template:   s.Template,
				Wait:       s.Wait,
				Repeat:     s.Repeat,
			})
		}
	}
	return stored, steps
}

func compareFixture(t *testing.T) (Spec, mapResolver) {
	t.Helper()

	specs := DerivePlans("team1a", testRules())
	var spec Spec
	for _, s := range specs {
		if s.Kind == KindScrumTeam {
			spec = s
		}
	}
	require.NotEmpty(t, spec.Name)

	resolver := mapResolver{
		roles: map[uint]string{
			1: RoleOncallPrimary,
			2: RoleOncallPrimaryExclHolidays,
		},
		priorities: map[uint]string{
			1: PriorityHigh,
			2: PriorityUrgent,
		},
		targets: map[uint]string{
			10: "team1a-24x7-builtin",
			11: "standby-support-builtin",
			12: "srt-retail-builtin",
			13: "standby-escalation-builtin",
		},
	}
	return spec, resolver
}

func TestValidateRoundTrip(t *testing.T) {
	spec, resolver := compareFixture(t)
	stored, steps := storeSpec(t, spec, resolver)

	assert.True(t, Validate(spec, stored, steps, resolver))
}

func TestValidateIgnoresStepOrderWithinLevel(t *testing.T) {
	spec, resolver := compareFixture(t)
	stored, steps := storeSpec(t, spec, resolver)

	// Swap the two alternatives of level 1; the plan is still valid.
	require.Equal(t, steps[0].Step, steps[1].Step)
	steps[0], steps[1] = steps[1], steps[0]

	assert.True(t, Validate(spec, stored, steps, resolver))
}

func TestValidateMissingPlan(t *testing.T) {
	spec, resolver := compareFixture(t)

	assert.False(t, Validate(spec, nil, nil, resolver))
}

func TestValidateDetectsDrift(t *testing.T) {
	spec, resolver := compareFixture(t)

	tests := []struct {
		name   string
		mutate func(stored *StoredPlan, steps []StoredStep)
	}{
		{"description changed", func(stored *StoredPlan, steps []StoredStep) {
			stored.Description = "hand-edited"
		}},
		{"step count changed", func(stored *StoredPlan, steps []StoredStep) {
			stored.StepCount++
		}},
		{"wait changed", func(stored *StoredPlan, steps []StoredStep) {
			steps[0].Wait = 60
		}},
		{"repeat changed", func(stored *StoredPlan, steps []StoredStep) {
			steps[len(steps)-1].Repeat = 5
		}},
		{"target swapped", func(stored *StoredPlan, steps []StoredStep) {
			steps[len(steps)-1].TargetID = 10
		}},
		{"unresolvable role id", func(stored *StoredPlan, steps []StoredStep) {
			steps[0].RoleID = 99
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, steps := storeSpec(t, spec, resolver)
			tt.mutate(stored, steps)
			assert.False(t, Validate(spec, stored, steps, resolver))
		})
	}
}

func TestValidateDetectsMissingAndExtraSteps(t *testing.T) {
	spec, resolver := compareFixture(t)

	stored, steps := storeSpec(t, spec, resolver)
	assert.False(t, Validate(spec, stored, steps[:len(steps)-1], resolver),
		"dropping the last level must invalidate the plan")

	stored, steps = storeSpec(t, spec, resolver)
	extra := steps[len(steps)-1]
	assert.False(t, Validate(spec, stored, append(steps, extra), resolver),
		"a duplicated step must invalidate the plan")
}

func TestValidateIgnoresVolatileMetadata(t *testing.T) {
	spec, resolver := compareFixture(t)
	stored, steps := storeSpec(t, spec, resolver)
	stored.ThresholdWindow = 1
	stored.AggregationReset = 7

	assert.True(t, Validate(spec, stored, steps, resolver))
}
