package plan

import "strings"

// Classification is the derived category of a team. It is a pure
// function of the team name and the rule sets, never stored.
type Classification string

const (
	ClassificationPlatform          Classification = "platform"
	ClassificationStandby           Classification = "standby"
	ClassificationStandbyEscalation Classification = "standby-escalation"
	ClassificationScrum             Classification = "scrum"
	ClassificationPrivate           Classification = "private"
)

// Rules are the externally supplied classification inputs. Team names in
// the sets are base names. ScrumSpaces maps a scrum team's base name to
// its space, SpaceToSRT maps a space to the secondary-response team that
// scrum teams in it escalate to.
type Rules struct {
	ScrumPrefix            string
	PlatformTeams          map[string]struct{}
	StandbyTeams           map[string]struct{}
	StandbyEscalationTeams map[string]struct{}
	ScrumSpaces            map[string]string
	SpaceToSRT             map[string]string
	StandbySupportTeam     string
	StandbyEscalationTeam  string
}

// BaseName strips the builtin suffix and one known time-period suffix
// from a team name.
func BaseName(team string) string {
	base := strings.TrimSuffix(team, BuiltinSuffix)
	for _, period := range knownPeriods {
		if trimmed := strings.TrimSuffix(base, "-"+period); trimmed != base {
			return trimmed
		}
	}
	return base
}

// Classify returns the single classification branch that applies to a
// team. Branches are evaluated in fixed priority order and the first
// match wins; a team matching nothing is explicitly private, never a
// silent no-op.
func Classify(team string, r Rules) Classification {
	base := BaseName(team)

	if _, ok := r.PlatformTeams[base]; ok {
		return ClassificationPlatform
	}
	if _, ok := r.StandbyTeams[base]; ok {
		return ClassificationStandby
	}
	if _, ok := r.StandbyEscalationTeams[base]; ok {
		return ClassificationStandbyEscalation
	}
	if r.ScrumPrefix != "" && strings.HasPrefix(base, r.ScrumPrefix) {
		return ClassificationScrum
	}
	return ClassificationPrivate
}
