package plan

// Naming building blocks. Generated plan and target names are composed
// as <base>-<period><variant>-builtin; the builtin suffix marks rows this
// daemon owns and may regenerate.
const (
	BuiltinSuffix = "-builtin"

	suffixPrivate     = "-private"
	suffixWithSRT     = "-withsrt"
	suffixWithStandby = "-withstandby"

	Period24x7          = "24x7"
	PeriodWorkhours     = "workhours"
	PeriodBusinessHours = "businesshours"
	PeriodStandby       = "standby"
)

// knownPeriods are the time-period suffixes stripped when computing a
// team's base name.
var knownPeriods = []string{PeriodWorkhours, PeriodStandby, Period24x7, PeriodBusinessHours}

// privatePeriods are the time periods every team gets a baseline private
// plan for.
var privatePeriods = []string{Period24x7, PeriodWorkhours}

// Escalation timing and priority defaults. repeat * wait gives the total
// escalation window of a level.
const (
	DefaultTemplate = "default"

	defaultWait      = 1600
	escalationWait   = 900
	defaultRepeat    = 0
	escalationRepeat = 1

	PriorityHigh   = "high"
	PriorityUrgent = "urgent"

	RoleOncallPrimary             = "oncall-primary"
	RoleOncallPrimaryExclHolidays = "oncall-primary-exclude-holidays"
)

// Plan metadata defaults shared by every generated plan.
const (
	defaultThresholdWindow   = 900
	defaultThresholdCount    = 10
	defaultAggregationWindow = 300
	defaultAggregationReset  = 300
)

const (
	descriptionScrumTeam = "Escalation and after hours support by SRT and standby teams"
	descriptionStandby   = "Standby plan with escalation"
	descriptionPrivate   = "Simple plan without escalation"
)

// stepCount metadata per kind; kept distinct from the number of levels
// for compatibility with the consuming notification system.
const (
	stepCountScrumTeam = 1
	stepCountStandby   = 0
	stepCountPrivate   = 0
)

// scrumTeamSteps instantiates the scrum-team template: the team and the
// standby support rotation first, the SRT and standby support as first
// escalation, the standby escalation rotation last.
func scrumTeamSteps(team, standbySupport, srt, standbyEscalation string) [][]Step {
	return [][]Step{
		{
			{
				Role:     RoleOncallPrimaryExclHolidays,
				Priority: PriorityHigh,
				Target:   team,
				Template: DefaultTemplate,
				Wait:     defaultWait,
				Repeat:   defaultRepeat,
			},
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityHigh,
				Target:   standbySupport,
				Template: DefaultTemplate,
				Wait:     defaultWait,
				Repeat:   defaultRepeat,
			},
		},
		{
			{
				Role:     RoleOncallPrimaryExclHolidays,
				Priority: PriorityHigh,
				Target:   srt,
				Template: DefaultTemplate,
				Wait:     escalationWait,
				Repeat:   escalationRepeat,
			},
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityUrgent,
				Target:   standbySupport,
				Template: DefaultTemplate,
				Wait:     escalationWait,
				Repeat:   escalationRepeat,
			},
		},
		{
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityUrgent,
				Target:   standbyEscalation,
				Template: DefaultTemplate,
				Wait:     escalationWait,
				Repeat:   escalationRepeat,
			},
		},
	}
}

// standbySteps instantiates the standby template: the rotation itself
// twice with rising priority, then the standby escalation rotation.
func standbySteps(team, escalation string) [][]Step {
	return [][]Step{
		{
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityHigh,
				Target:   team,
				Template: DefaultTemplate,
				Wait:     defaultWait,
				Repeat:   defaultRepeat,
			},
		},
		{
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityUrgent,
				Target:   team,
				Template: DefaultTemplate,
				Wait:     escalationWait,
				Repeat:   escalationRepeat,
			},
		},
		{
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityUrgent,
				Target:   escalation,
				Template: DefaultTemplate,
				Wait:     escalationWait,
				Repeat:   escalationRepeat,
			},
		},
	}
}

// privateSteps instantiates the private template: one notification, no
// escalation.
func privateSteps(team string) [][]Step {
	return [][]Step{
		{
			{
				Role:     RoleOncallPrimary,
				Priority: PriorityHigh,
				Target:   team,
				Template: DefaultTemplate,
				Wait:     defaultWait,
				Repeat:   defaultRepeat,
			},
		},
	}
}
