// Package plan holds the escalation-plan domain: canonical plan
// derivation from team classification rules, the static step template
// library, and structural comparison of stored plans against their
// canonical form.
package plan

import "time"

// Kind is the template family a generated plan is instantiated from.
type Kind string

const (
	KindScrumTeam Kind = "scrumteam"
	KindStandby   Kind = "standby"
	KindPrivate   Kind = "private"
)

// Step is one notification action within a plan level, expressed in
// names. Steps sharing a level are alternatives executed in parallel;
// their order within the level carries no meaning.
type Step struct {
	Role     string
	Priority string
	Target   string
	Template string
	Wait     int
	Repeat   int
}

// Spec is the canonical, derived form of a plan: what a team's plan
// should look like according to its classification. Derivation is pure,
// so a Spec serves both creation and later validation.
type Spec struct {
	Name           string
	Team           string
	Kind           Kind
	Classification Classification
	Description    string
	StepCount      int
	// Steps holds the plan levels in order; level n is Steps[n-1].
	Steps [][]Step
}

// Record is the metadata row written when a plan is created or
// regenerated.
type Record struct {
	Name              string
	Description       string
	StepCount         int
	ThresholdWindow   int
	ThresholdCount    int
	AggregationWindow int
	AggregationReset  int
}

// NewRecord builds the plan row for a spec with the fixed metadata
// defaults all generated plans share.
func NewRecord(spec Spec) Record {
	return Record{
		Name:              spec.Name,
		Description:       spec.Description,
		StepCount:         spec.StepCount,
		ThresholdWindow:   defaultThresholdWindow,
		ThresholdCount:    defaultThresholdCount,
		AggregationWindow: defaultAggregationWindow,
		AggregationReset:  defaultAggregationReset,
	}
}

// ResolvedStep is a step with its names resolved to store ids, ready for
// insertion.
type ResolvedStep struct {
	Step       int
	RoleID     uint
	PriorityID uint
	TargetID   uint
	Template   string
	Wait       int
	Repeat     int
}

// StoredPlan is a plan row as read back from the store, joined with its
// active pointer.
type StoredPlan struct {
	ID                uint
	Name              string
	Description       string
	StepCount         int
	ThresholdWindow   int
	ThresholdCount    int
	AggregationWindow int
	AggregationReset  int
	Created           time.Time
	ActiveName        string
}

// StoredStep is a plan notification row as read back from the store.
type StoredStep struct {
	ID         uint
	PlanID     uint
	Step       int
	RoleID     uint
	PriorityID uint
	TargetID   uint
	Template   string
	Wait       int
	Repeat     int
}
