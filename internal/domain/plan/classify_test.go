package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRules() Rules {
	return Rules{
		ScrumPrefix:            "team",
		PlatformTeams:          map[string]struct{}{"sre": {}},
		StandbyTeams:           map[string]struct{}{"dba": {}},
		StandbyEscalationTeams: map[string]struct{}{"standby-escalation": {}},
		ScrumSpaces:            map[string]string{"team1a": "retail"},
		SpaceToSRT:             map[string]string{"retail": "srt-retail"},
		StandbySupportTeam:     "standby-support",
		StandbyEscalationTeam:  "standby-escalation",
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		team string
		want string
	}{
		{"plain", "team1a", "team1a"},
		{"builtin suffix", "team1a-builtin", "team1a"},
		{"period suffix", "team1a-24x7", "team1a"},
		{"period and builtin", "team1a-workhours-builtin", "team1a"},
		{"standby period", "dba-standby-builtin", "dba"},
		{"businesshours period", "sre-businesshours", "sre"},
		{"unknown suffix kept", "team1a-foo", "team1a-foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.team))
		})
	}
}

func TestClassify(t *testing.T) {
	rules := testRules()

	tests := []struct {
		name string
		team string
		want Classification
	}{
		{"platform team", "sre", ClassificationPlatform},
		{"standby team", "dba", ClassificationStandby},
		{"standby team with period", "dba-standby-builtin", ClassificationStandby},
		{"standby escalation team", "standby-escalation", ClassificationStandbyEscalation},
		{"scrum team by prefix", "team1a", ClassificationScrum},
		{"scrum team without space mapping", "team9z", ClassificationScrum},
		{"everything else is private", "payments-oncall", ClassificationPrivate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.team, rules))
		})
	}
}

func TestClassifyMembershipBeatsPrefix(t *testing.T) {
	rules := testRules()
	rules.PlatformTeams["team0platform"] = struct{}{}

	// Explicit set membership wins over the scrum prefix match.
	assert.Equal(t, ClassificationPlatform, Classify("team0platform", rules))
}

func TestClassifyEmptyPrefixNeverMatchesScrum(t *testing.T) {
	rules := testRules()
	rules.ScrumPrefix = ""

	assert.Equal(t, ClassificationPrivate, Classify("team1a", rules))
}
