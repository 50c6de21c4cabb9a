package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"targetsync/internal/domain/plan"
	"targetsync/internal/domain/target"
	"targetsync/internal/shared/config"
	apperrors "targetsync/internal/shared/errors"
	"targetsync/internal/shared/logger"
)

// fakeStore backs both repository fakes with one consistent in-memory
// state, the way the real repositories share one database.
type fakeStore struct {
	nextID    uint
	targets   map[string]*fakeTarget
	byID      map[uint]*fakeTarget
	contacts  map[uint]map[uint]string
	modes     map[string]uint
	roles     map[string]uint
	roleKinds map[uint]target.Kind
	priority  map[string]uint

	planSeq   uint
	planRows  map[uint]storedPlanRow
	planSteps map[uint][]plan.ResolvedStep
	active    map[string]uint
}

type fakeTarget struct {
	id     uint
	name   string
	kind   target.Kind
	active bool
}

type storedPlanRow struct {
	rec plan.Record
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		targets:   make(map[string]*fakeTarget),
		byID:      make(map[uint]*fakeTarget),
		contacts:  make(map[uint]map[uint]string),
		modes:     map[string]uint{"email": 1, "sms": 2, "call": 3, "slack": 4},
		roles:     map[string]uint{"user": 1, "team": 2, plan.RoleOncallPrimary: 3, plan.RoleOncallPrimaryExclHolidays: 4},
		roleKinds: map[uint]target.Kind{1: target.KindUser, 2: target.KindTeam, 3: target.KindTeam, 4: target.KindTeam},
		priority:  map[string]uint{"low": 1, "medium": 2, "high": 3, "urgent": 4},
		planRows:  make(map[uint]storedPlanRow),
		planSteps: make(map[uint][]plan.ResolvedStep),
		active:    make(map[string]uint),
	}
	return s
}

func (s *fakeStore) key(name string, kind target.Kind) string {
	return string(kind) + "/" + name
}

func (s *fakeStore) addTarget(name string, kind target.Kind) *fakeTarget {
	s.nextID++
	t := &fakeTarget{id: s.nextID, name: name, kind: kind, active: true}
	s.targets[s.key(name, kind)] = t
	s.byID[t.id] = t
	return t
}

func (s *fakeStore) referenced(id uint) bool {
	for _, steps := range s.planSteps {
		for _, st := range steps {
			if st.TargetID == id {
				return true
			}
		}
	}
	return false
}

type fakeTargets struct{ s *fakeStore }

func (f *fakeTargets) Modes(ctx context.Context) (map[string]uint, error) {
	return f.s.modes, nil
}

func (f *fakeTargets) ListActiveUsers(ctx context.Context) (map[string]target.Contacts, error) {
	users := make(map[string]target.Contacts)
	for _, t := range f.s.targets {
		if t.kind != target.KindUser || !t.active {
			continue
		}
		contacts := target.Contacts{}
		for modeID, dest := range f.s.contacts[t.id] {
			for name, id := range f.s.modes {
				if id == modeID {
					contacts[name] = dest
				}
			}
		}
		users[t.name] = contacts
	}
	return users, nil
}

func (f *fakeTargets) ListActiveTeamNames(ctx context.Context) (map[string]struct{}, error) {
	teams := make(map[string]struct{})
	for _, t := range f.s.targets {
		if t.kind == target.KindTeam && t.active {
			teams[t.name] = struct{}{}
		}
	}
	return teams, nil
}

func (f *fakeTargets) NamesByID(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string)
	for _, id := range ids {
		if t, ok := f.s.byID[id]; ok {
			names[id] = t.name
		}
	}
	return names, nil
}

func (f *fakeTargets) UpsertTarget(ctx context.Context, name string, kind target.Kind) (uint, error) {
	if t, ok := f.s.targets[f.s.key(name, kind)]; ok {
		t.active = true
		return t.id, nil
	}
	return f.s.addTarget(name, kind).id, nil
}

func (f *fakeTargets) SetActive(ctx context.Context, name string, kind target.Kind, active bool) error {
	t, ok := f.s.targets[f.s.key(name, kind)]
	if !ok {
		return apperrors.NewNotFoundError("target not found", name)
	}
	t.active = active
	return nil
}

func (f *fakeTargets) DeleteTarget(ctx context.Context, name string, kind target.Kind) error {
	t, ok := f.s.targets[f.s.key(name, kind)]
	if !ok {
		return apperrors.NewNotFoundError("target not found", name)
	}
	if f.s.referenced(t.id) {
		return apperrors.NewConflictError("target still referenced", name)
	}
	delete(f.s.targets, f.s.key(name, kind))
	delete(f.s.byID, t.id)
	delete(f.s.contacts, t.id)
	return nil
}

func (f *fakeTargets) InsertContact(ctx context.Context, targetID uint, modeID uint, destination string) error {
	if f.s.contacts[targetID] == nil {
		f.s.contacts[targetID] = make(map[uint]string)
	}
	f.s.contacts[targetID][modeID] = destination
	return nil
}

func (f *fakeTargets) UpdateContact(ctx context.Context, name string, modeID uint, destination string) error {
	t, ok := f.s.targets[f.s.key(name, target.KindUser)]
	if !ok {
		return apperrors.NewNotFoundError("target not found", name)
	}
	return f.InsertContact(ctx, t.id, modeID, destination)
}

func (f *fakeTargets) DeleteContact(ctx context.Context, name string, modeID uint) error {
	t, ok := f.s.targets[f.s.key(name, target.KindUser)]
	if !ok {
		return apperrors.NewNotFoundError("target not found", name)
	}
	delete(f.s.contacts[t.id], modeID)
	return nil
}

type fakePlans struct{ s *fakeStore }

func (f *fakePlans) GetActivePlan(ctx context.Context, name string) (*plan.StoredPlan, error) {
	id, ok := f.s.active[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("no active plan", name)
	}
	row := f.s.planRows[id]
	return &plan.StoredPlan{
		ID:          id,
		Name:        row.rec.Name,
		Description: row.rec.Description,
		StepCount:   row.rec.StepCount,
		ActiveName:  name,
	}, nil
}

func (f *fakePlans) GetPlanSteps(ctx context.Context, planID uint) ([]plan.StoredStep, error) {
	steps := make([]plan.StoredStep, 0, len(f.s.planSteps[planID]))
	for i, st := range f.s.planSteps[planID] {
		steps = append(steps, plan.StoredStep{
			ID:         uint(i + 1),
			PlanID:     planID,
			Step:       st.Step,
			RoleID:     st.RoleID,
			PriorityID: st.PriorityID,
			TargetID:   st.TargetID,
			Template:   st.Template,
			Wait:       st.Wait,
			Repeat:     st.Repeat,
		})
	}
	return steps, nil
}

func (f *fakePlans) PlanIDByName(ctx context.Context, name string) (uint, error) {
	var newest uint
	for id, row := range f.s.planRows {
		if row.rec.Name == name && id > newest {
			newest = id
		}
	}
	if newest == 0 {
		return 0, apperrors.NewNotFoundError("plan not found", name)
	}
	return newest, nil
}

func (f *fakePlans) Priorities(ctx context.Context) (map[string]uint, error) {
	return f.s.priority, nil
}

func (f *fakePlans) Roles(ctx context.Context) (map[string]uint, error) {
	return f.s.roles, nil
}

func (f *fakePlans) AllowedRolesForTarget(ctx context.Context, targetName string) (map[uint]uint, error) {
	allowed := make(map[uint]uint)
	for _, t := range f.s.targets {
		if t.name != targetName {
			continue
		}
		for roleID, kind := range f.s.roleKinds {
			if kind == t.kind {
				allowed[roleID] = t.id
			}
		}
	}
	if len(allowed) == 0 {
		return nil, apperrors.NewNotFoundError("step target not found", targetName)
	}
	return allowed, nil
}

func (f *fakePlans) ReplacePlan(ctx context.Context, rec plan.Record, steps []plan.ResolvedStep) (uint, error) {
	f.s.planSeq++
	id := f.s.planSeq
	f.s.planRows[id] = storedPlanRow{rec: rec}
	f.s.planSteps[id] = steps
	f.s.active[rec.Name] = id
	return id, nil
}

func (f *fakePlans) RemoveActivePointer(ctx context.Context, planID uint) error {
	for name, id := range f.s.active {
		if id == planID {
			delete(f.s.active, name)
		}
	}
	return nil
}

type fakeRoster struct {
	users map[string]map[string]string
	teams []string
}

func (f *fakeRoster) FetchUsers(ctx context.Context) map[string]map[string]string {
	users := make(map[string]map[string]string, len(f.users))
	for name, contacts := range f.users {
		copied := make(map[string]string, len(contacts))
		for k, v := range contacts {
			copied[k] = v
		}
		users[name] = copied
	}
	return users
}

func (f *fakeRoster) FetchTeams(ctx context.Context) []string {
	return append([]string(nil), f.teams...)
}

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		IntervalSeconds:        3600,
		Purge:                  true,
		DefaultRegion:          "US",
		ScrumTeamPrefix:        "team",
		PlatformTeams:          []string{"sre"},
		StandbyTeams:           []string{"dba"},
		StandbyEscalationTeams: []string{"standby-escalation"},
		StandbySupportTeam:     "standby-support",
		StandbyEscalationTeam:  "standby-escalation",
		SpaceToSRTTeam:         map[string]string{"retail": "srt-retail"},
	}
}

type fixture struct {
	store     *fakeStore
	targets   *fakeTargets
	plans     *fakePlans
	roster    *fakeRoster
	cfg       *config.SyncConfig
	spaces    map[string]string
	spacesErr error
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	f := &fixture{
		store:   store,
		targets: &fakeTargets{s: store},
		plans:   &fakePlans{s: store},
		roster:  &fakeRoster{users: map[string]map[string]string{}, teams: nil},
		cfg:     testSyncConfig(),
		spaces:  map[string]string{"team1a": "retail"},
	}
	f.service = NewService(
		f.targets,
		f.plans,
		f.roster,
		f.cfg,
		func() (map[string]string, error) { return f.spaces, f.spacesErr },
		logger.NewLogger(),
	)
	return f
}

// seedSupportTeams creates the fixed rotations scrum and standby plans
// escalate to, as a real deployment would have from earlier passes.
func (f *fixture) seedSupportTeams() {
	f.store.addTarget("standby-support-builtin", target.KindTeam)
	f.store.addTarget("srt-retail-builtin", target.KindTeam)
	f.store.addTarget("standby-escalation-builtin", target.KindTeam)
}

func TestRunPassInsertsNewUsers(t *testing.T) {
	f := newFixture(t)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com", "sms": "+1 415-555-2671"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersAdded)

	users, err := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, target.Contacts{
		"email": "alice@example.com",
		"sms":   "+1 415-555-2671",
	}, users["alice"])
}

func TestRunPassUpdatesChangedContacts(t *testing.T) {
	f := newFixture(t)
	alice := f.store.addTarget("alice", target.KindUser)
	f.store.contacts[alice.id] = map[uint]string{
		1: "old@example.com", // email, stale
		2: "+1 415-555-2671", // sms, unchanged
		4: "alice",           // slack, gone upstream
	}
	f.roster.users["alice"] = map[string]string{
		"email": "alice@example.com",
		"sms":   "+1 415-555-2671",
		"call":  "+1 415-555-0000",
	}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.UsersAdded)
	assert.Equal(t, 1, summary.UsersUpdated)

	users, err := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, target.Contacts{
		"email": "alice@example.com",
		"sms":   "+1 415-555-2671",
		"call":  "+1 415-555-0000",
	}, users["alice"])
}

func TestRunPassAbortsOnEmptyUserSnapshot(t *testing.T) {
	f := newFixture(t)
	f.store.addTarget("alice", target.KindUser)
	f.cfg.PresetUsers = []config.PresetUser{{Name: "dropbox", Contacts: map[string]string{"email": "ops@example.com"}}}
	f.roster.teams = []string{"dba"}

	summary, err := f.service.RunPass(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransientError(err))
	assert.NotEmpty(t, summary.Aborted)

	// Nothing was pruned or written: presets never masked the outage.
	users, err := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, err)
	assert.Contains(t, users, "alice")
	assert.NotContains(t, users, "dropbox")
	assert.Empty(t, f.store.active)
}

func TestRunPassMergesPresetUsers(t *testing.T) {
	f := newFixture(t)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.cfg.PresetUsers = []config.PresetUser{{
		Name: "dropbox",
		Contacts: map[string]string{
			"email": "ops@example.com",
			"sms":   "415-555-2671",
			"call":  "garbage",
		},
	}}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.UsersAdded)

	users, err := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, err)
	// The preset phone was normalized; the unparsable one was dropped.
	assert.Equal(t, target.Contacts{
		"email": "ops@example.com",
		"sms":   "+1 415-555-2671",
	}, users["dropbox"])
}

func TestRunPassCreatesTeamAndPlans(t *testing.T) {
	f := newFixture(t)
	f.seedSupportTeams()
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"team1a-24x7", "team1a-workhours"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TeamsAdded)
	assert.Equal(t, 3, summary.PlansCreated)
	assert.Zero(t, summary.PlansFailed)

	teams, err := f.targets.ListActiveTeamNames(context.Background())
	require.NoError(t, err)
	assert.Contains(t, teams, "team1a-24x7-builtin")
	assert.Contains(t, teams, "team1a-workhours-builtin")

	assert.Contains(t, f.store.active, "team1a-24x7-withsrt-builtin")
	assert.Contains(t, f.store.active, "team1a-24x7-private-builtin")
	assert.Contains(t, f.store.active, "team1a-workhours-private-builtin")
}

func TestRunPassScrumTeamWithoutSpaceSkipsEscalationPlan(t *testing.T) {
	f := newFixture(t)
	f.seedSupportTeams()
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"team9z-24x7", "team9z-workhours"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PlansCreated)
	assert.Zero(t, summary.PlansFailed)
	assert.NotContains(t, f.store.active, "team9z-24x7-withsrt-builtin")
}

func TestRunPassScrumMetadataUnreadableStillSyncsEverythingElse(t *testing.T) {
	f := newFixture(t)
	f.seedSupportTeams()
	f.spacesErr = errors.New("open scrumteams.yaml: no such file or directory")
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"team1a-24x7", "team1a-workhours"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Aborted)

	// Users and teams still converge; only the scrum escalation plan is
	// held back until the metadata file is readable again.
	assert.Equal(t, 1, summary.UsersAdded)
	assert.Equal(t, 2, summary.TeamsAdded)
	assert.Equal(t, 2, summary.PlansCreated)
	assert.Zero(t, summary.PlansFailed)

	users, lerr := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, lerr)
	assert.Contains(t, users, "alice")
	assert.NotContains(t, f.store.active, "team1a-24x7-withsrt-builtin")
	assert.Contains(t, f.store.active, "team1a-24x7-private-builtin")
	assert.Contains(t, f.store.active, "team1a-workhours-private-builtin")
}

func TestRunPassPrivatePlanStepTargetMissing(t *testing.T) {
	f := newFixture(t)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	// The workhours step target is never created, so that plan must be
	// rejected while the 24x7 one goes through.
	f.roster.teams = []string{"payments-24x7"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PlansCreated)
	assert.Equal(t, 1, summary.PlansFailed)
	assert.Contains(t, f.store.active, "payments-24x7-private-builtin")
	assert.NotContains(t, f.store.active, "payments-workhours-private-builtin")
}

func TestRunPassSecondPassIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedSupportTeams()
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"dba-standby"}

	_, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	plansAfterFirst := len(f.store.planRows)

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.UsersAdded)
	assert.Zero(t, summary.TeamsAdded)
	assert.Zero(t, summary.PlansCreated, "valid plans must not be regenerated")
	assert.Equal(t, plansAfterFirst, len(f.store.planRows))
}

func TestRunPassRegeneratesDriftedPlan(t *testing.T) {
	f := newFixture(t)
	f.seedSupportTeams()
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"dba-standby"}

	_, err := f.service.RunPass(context.Background())
	require.NoError(t, err)

	// Hand-edit one stored wait; the next pass must regenerate, and the
	// old row stays behind as history.
	planID := f.store.active["dba-standby-withstandby-builtin"]
	f.store.planSteps[planID][0].Wait = 60
	before := len(f.store.planRows)

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PlansCreated)
	assert.Equal(t, before+1, len(f.store.planRows))
	assert.NotEqual(t, planID, f.store.active["dba-standby-withstandby-builtin"])
}

func TestRunPassPrunesVanishedUsers(t *testing.T) {
	f := newFixture(t)
	f.store.addTarget("ghost", target.KindUser)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersPruned)

	users, err := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, users, "ghost")
	// Purge was enabled and nothing referenced the user: hard delete.
	_, exists := f.store.targets[f.store.key("ghost", target.KindUser)]
	assert.False(t, exists)
}

func TestRunPassDeactivatesReferencedTargets(t *testing.T) {
	f := newFixture(t)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"payments-24x7"}

	// First pass creates the team and its 24x7 private plan.
	_, err := f.service.RunPass(context.Background())
	require.NoError(t, err)

	// The team vanishes. Its target is referenced by plan history, so
	// the delete downgrades to a deactivation and the pointer is
	// removed.
	f.roster.teams = nil
	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TeamsPruned)

	stored := f.store.targets[f.store.key("payments-24x7-builtin", target.KindTeam)]
	require.NotNil(t, stored, "referenced target must survive")
	assert.False(t, stored.active)
	assert.NotContains(t, f.store.active, "payments-24x7-private-builtin")
	assert.NotEmpty(t, f.store.planRows, "plan history is retained")
}

func TestRunPassWithoutPurgeOnlyDeactivates(t *testing.T) {
	f := newFixture(t)
	f.cfg.Purge = false
	f.store.addTarget("ghost", target.KindUser)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersPruned)

	stored := f.store.targets[f.store.key("ghost", target.KindUser)]
	require.NotNil(t, stored)
	assert.False(t, stored.active)
}

func TestRunPassDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.cfg.DryRun = true
	f.seedSupportTeams()
	f.store.addTarget("ghost", target.KindUser)
	f.roster.users["alice"] = map[string]string{"email": "alice@example.com"}
	f.roster.teams = []string{"dba-standby"}

	summary, err := f.service.RunPass(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.UsersAdded)
	assert.Equal(t, 1, summary.TeamsAdded)
	assert.Equal(t, 3, summary.PlansCreated)
	assert.Equal(t, 1, summary.UsersPruned)

	users, err := f.targets.ListActiveUsers(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, users, "alice")
	assert.Contains(t, users, "ghost")
	assert.Empty(t, f.store.planRows)
	teams, err := f.targets.ListActiveTeamNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, teams, 3, "only the seeded support rotations exist")
}
