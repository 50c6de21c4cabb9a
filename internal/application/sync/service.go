// Package sync implements the reconciliation engine: one pass reads the
// roster snapshot and the target store, then converges the store's
// users, teams, contacts and generated escalation plans onto the
// snapshot.
package sync

import (
	"context"
	"fmt"

	"targetsync/internal/domain/plan"
	"targetsync/internal/domain/roster"
	"targetsync/internal/domain/target"
	"targetsync/internal/shared/biztime"
	"targetsync/internal/shared/config"
	apperrors "targetsync/internal/shared/errors"
	"targetsync/internal/shared/logger"
	"targetsync/internal/shared/metrics"
	"targetsync/internal/shared/phone"
	"targetsync/internal/shared/utils/setutil"
)

// Service runs reconciliation passes. It owns no schedule; the caller
// decides when RunPass fires.
type Service struct {
	targets    target.Repository
	plans      plan.Repository
	roster     roster.Client
	cfg        *config.SyncConfig
	loadSpaces func() (map[string]string, error)
	logger     logger.Interface
}

func NewService(
	targets target.Repository,
	plans plan.Repository,
	rosterClient roster.Client,
	cfg *config.SyncConfig,
	loadSpaces func() (map[string]string, error),
	log logger.Interface,
) *Service {
	return &Service{
		targets:    targets,
		plans:      plans,
		roster:     rosterClient,
		cfg:        cfg,
		loadSpaces: loadSpaces,
		logger:     log.Named("sync"),
	}
}

// RunPass executes one full reconciliation pass. The pass is ordered so
// that additive phases run before destructive ones: users and teams are
// inserted and updated first, plans are created and validated next, and
// only then are vanished targets pruned. A pass never returns early on
// per-item failures; those are logged, counted and skipped.
func (s *Service) RunPass(ctx context.Context) (*PassSummary, error) {
	start := biztime.NowUTC()
	summary := &PassSummary{StartedAt: start, DryRun: s.cfg.DryRun}
	defer func() {
		summary.Duration = biztime.NowUTC().Sub(start)
		metrics.PassDuration.Observe(summary.Duration.Seconds())
	}()

	rosterUsers := s.roster.FetchUsers(ctx)
	rosterTeams := s.roster.FetchTeams(ctx)
	summary.UsersFound = len(rosterUsers)
	summary.TeamsFound = len(rosterTeams)
	metrics.UsersFound.Set(float64(len(rosterUsers)))
	metrics.TeamsFound.Set(float64(len(rosterTeams)))

	// An empty user snapshot means the roster was unreachable or broken.
	// Reconciling against it would prune every user, so the pass aborts
	// before any preset merge or write.
	if len(rosterUsers) == 0 {
		summary.Aborted = "empty roster user snapshot"
		s.logger.Errorw("aborting pass: roster returned no users")
		return summary, apperrors.NewTransientError("empty roster user snapshot")
	}
	if len(rosterTeams) == 0 {
		s.logger.Warnw("roster returned no teams, team and plan phases will be skipped")
	}

	s.mergePresetUsers(rosterUsers)
	summary.UsersFound = len(rosterUsers)

	rules := s.buildRules()

	dbUsers, err := s.targets.ListActiveUsers(ctx)
	if err != nil {
		summary.Aborted = "target store unreadable"
		return summary, fmt.Errorf("failed to list stored users: %w", err)
	}
	dbTeams, err := s.targets.ListActiveTeamNames(ctx)
	if err != nil {
		summary.Aborted = "target store unreadable"
		return summary, fmt.Errorf("failed to list stored teams: %w", err)
	}
	modes, err := s.targets.Modes(ctx)
	if err != nil {
		summary.Aborted = "target store unreadable"
		return summary, fmt.Errorf("failed to list modes: %w", err)
	}

	look, err := newLookups(ctx, s.targets, s.plans)
	if err != nil {
		summary.Aborted = "target store unreadable"
		return summary, err
	}

	s.reconcileUsers(ctx, rosterUsers, dbUsers, modes, summary)
	s.reconcileTeams(ctx, rosterTeams, dbTeams, rules, look, summary)
	s.pruneUsers(ctx, rosterUsers, dbUsers, summary)
	s.pruneTeams(ctx, rosterTeams, dbTeams, rules, summary)

	s.logger.Infow("pass complete",
		"duration", biztime.NowUTC().Sub(start),
		"users_added", summary.UsersAdded,
		"users_updated", summary.UsersUpdated,
		"teams_added", summary.TeamsAdded,
		"plans_created", summary.PlansCreated,
		"users_pruned", summary.UsersPruned,
		"teams_pruned", summary.TeamsPruned,
		"dry_run", s.cfg.DryRun,
	)
	return summary, nil
}

// mergePresetUsers overlays the statically configured users onto the
// roster snapshot. Presets win on conflict so fixed infrastructure
// accounts cannot be renamed away by the roster.
func (s *Service) mergePresetUsers(users map[string]map[string]string) {
	for _, preset := range s.cfg.PresetUsers {
		contacts := make(map[string]string, len(preset.Contacts))
		for mode, dest := range preset.Contacts {
			if mode == "sms" || mode == "call" {
				normalized, err := phone.Normalize(dest, s.cfg.DefaultRegion)
				if err != nil {
					s.logger.Warnw("dropping unparsable preset phone contact",
						"user", preset.Name,
						"mode", mode,
						"error", err,
					)
					continue
				}
				dest = normalized
			}
			contacts[mode] = dest
		}
		users[preset.Name] = contacts
	}
}

// buildRules assembles the classification rule sets from configuration
// and the scrum team metadata file, reloaded every pass so edits take
// effect without a restart. An unreadable metadata file degrades to an
// empty space table: scrum escalation plans are skipped for the pass,
// everything else proceeds.
func (s *Service) buildRules() plan.Rules {
	spaces, err := s.loadSpaces()
	if err != nil {
		s.logger.Errorw("failed to load scrum team metadata, scrum escalation plans will be skipped this pass",
			"error", err)
		spaces = map[string]string{}
	}

	toSet := func(names []string) map[string]struct{} {
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		return set
	}

	return plan.Rules{
		ScrumPrefix:            s.cfg.ScrumTeamPrefix,
		PlatformTeams:          toSet(s.cfg.PlatformTeams),
		StandbyTeams:           toSet(s.cfg.StandbyTeams),
		StandbyEscalationTeams: toSet(s.cfg.StandbyEscalationTeams),
		ScrumSpaces:            spaces,
		SpaceToSRT:             s.cfg.SpaceToSRTTeam,
		StandbySupportTeam:     s.cfg.StandbySupportTeam,
		StandbyEscalationTeam:  s.cfg.StandbyEscalationTeam,
	}
}

// reconcileUsers inserts roster users missing from the store and
// converges contact rows for users present in both.
func (s *Service) reconcileUsers(
	ctx context.Context,
	rosterUsers map[string]map[string]string,
	dbUsers map[string]target.Contacts,
	modes map[string]uint,
	summary *PassSummary,
) {
	rosterSet := setutil.FromKeys(rosterUsers)
	dbSet := setutil.FromKeys(dbUsers)

	for _, name := range rosterSet.Diff(dbSet).ToSlice() {
		if s.cfg.DryRun {
			s.logger.Infow("dry-run: would insert user", "user", name)
			summary.UsersAdded++
			continue
		}
		id, err := s.targets.UpsertTarget(ctx, name, target.KindUser)
		if err != nil {
			s.logger.Errorw("failed to insert user", "user", name, "error", err)
			metrics.UsersFailedToAdd.Inc()
			metrics.StoreErrors.Inc()
			summary.UsersFailed++
			continue
		}
		metrics.UsersAdded.Inc()
		summary.UsersAdded++

		for mode, dest := range rosterUsers[name] {
			modeID, ok := modes[mode]
			if !ok {
				s.logger.Warnw("skipping contact with unknown mode", "user", name, "mode", mode)
				continue
			}
			if err := s.targets.InsertContact(ctx, id, modeID, dest); err != nil {
				s.logger.Errorw("failed to insert contact",
					"user", name, "mode", mode, "error", err)
				metrics.StoreErrors.Inc()
				continue
			}
			metrics.UserContactsUpdated.Inc()
		}
	}

	for _, name := range rosterSet.Intersect(dbSet).ToSlice() {
		if s.updateUserContacts(ctx, name, rosterUsers[name], dbUsers[name], modes) {
			summary.UsersUpdated++
		}
	}
}

// updateUserContacts diffs one user's stored contacts against the roster
// and applies per-mode inserts, updates and deletes. Reports whether
// anything changed.
func (s *Service) updateUserContacts(
	ctx context.Context,
	name string,
	wanted map[string]string,
	stored target.Contacts,
	modes map[string]uint,
) bool {
	changed := false

	for mode, dest := range wanted {
		modeID, ok := modes[mode]
		if !ok {
			s.logger.Warnw("skipping contact with unknown mode", "user", name, "mode", mode)
			continue
		}
		if stored[mode] == dest {
			continue
		}
		changed = true
		if s.cfg.DryRun {
			s.logger.Infow("dry-run: would update contact", "user", name, "mode", mode)
			continue
		}
		if err := s.targets.UpdateContact(ctx, name, modeID, dest); err != nil {
			s.logger.Errorw("failed to update contact",
				"user", name, "mode", mode, "error", err)
			metrics.UsersFailedToUpdate.Inc()
			metrics.StoreErrors.Inc()
			continue
		}
		metrics.UserContactsUpdated.Inc()
	}

	for mode := range stored {
		if _, still := wanted[mode]; still {
			continue
		}
		modeID, ok := modes[mode]
		if !ok {
			continue
		}
		changed = true
		if s.cfg.DryRun {
			s.logger.Infow("dry-run: would delete contact", "user", name, "mode", mode)
			continue
		}
		if err := s.targets.DeleteContact(ctx, name, modeID); err != nil {
			s.logger.Errorw("failed to delete contact",
				"user", name, "mode", mode, "error", err)
			metrics.UsersFailedToUpdate.Inc()
			metrics.StoreErrors.Inc()
			continue
		}
		metrics.UserContactsUpdated.Inc()
	}

	return changed
}

// reconcileTeams inserts missing team targets first and only then
// converges each roster team's generated plans. The two loops are
// deliberate: a team's plans may reference sibling rotations of the
// same base team, so every target must exist before the first plan is
// written.
func (s *Service) reconcileTeams(
	ctx context.Context,
	rosterTeams []string,
	dbTeams map[string]struct{},
	rules plan.Rules,
	look *lookups,
	summary *PassSummary,
) {
	for _, team := range rosterTeams {
		targetName := externalName(team)
		if _, exists := dbTeams[targetName]; exists {
			continue
		}
		if s.cfg.DryRun {
			s.logger.Infow("dry-run: would insert team", "team", targetName)
			summary.TeamsAdded++
			continue
		}
		if _, err := s.targets.UpsertTarget(ctx, targetName, target.KindTeam); err != nil {
			s.logger.Errorw("failed to insert team", "team", targetName, "error", err)
			metrics.TeamsFailedToAdd.Inc()
			metrics.StoreErrors.Inc()
			summary.TeamsFailed++
			continue
		}
		metrics.TeamsAdded.Inc()
		summary.TeamsAdded++
	}

	for _, team := range rosterTeams {
		s.reconcilePlans(ctx, team, rules, look, summary)
	}
}

// reconcilePlans derives the canonical plans of one team, creates the
// missing ones and regenerates the ones that drifted.
func (s *Service) reconcilePlans(
	ctx context.Context,
	team string,
	rules plan.Rules,
	look *lookups,
	summary *PassSummary,
) {
	specs := plan.DerivePlans(team, rules)
	if plan.Classify(team, rules) == plan.ClassificationScrum && !plan.HasScrumEscalation(specs) {
		s.logger.Warnw("scrum team has no space mapping, skipping escalation plan",
			"team", team)
	}

	for _, spec := range specs {
		stored, err := s.plans.GetActivePlan(ctx, spec.Name)
		if err != nil && !apperrors.IsNotFoundError(err) {
			s.logger.Errorw("failed to load plan", "plan", spec.Name, "error", err)
			metrics.StoreErrors.Inc()
			continue
		}

		if stored != nil {
			steps, err := s.plans.GetPlanSteps(ctx, stored.ID)
			if err != nil {
				s.logger.Errorw("failed to load plan steps", "plan", spec.Name, "error", err)
				metrics.StoreErrors.Inc()
				continue
			}
			ids := make([]uint, 0, len(steps))
			for _, st := range steps {
				ids = append(ids, st.TargetID)
			}
			if err := look.prefetchTargets(ids); err != nil {
				s.logger.Errorw("failed to resolve plan targets", "plan", spec.Name, "error", err)
				metrics.StoreErrors.Inc()
				continue
			}
			if plan.Validate(spec, stored, steps, look) {
				continue
			}
			s.logger.Infow("plan drifted from canonical form, regenerating", "plan", spec.Name)
		}

		if s.cfg.DryRun {
			s.logger.Infow("dry-run: would write plan", "plan", spec.Name)
			summary.PlansCreated++
			continue
		}
		if err := s.writePlan(ctx, spec, look); err != nil {
			if apperrors.IsValidationError(err) {
				s.logger.Warnw("plan rejected", "plan", spec.Name, "error", err)
			} else {
				s.logger.Errorw("failed to write plan", "plan", spec.Name, "error", err)
				metrics.StoreErrors.Inc()
			}
			metrics.PlansFailedToCreate.Inc()
			summary.PlansFailed++
			continue
		}
		metrics.PlansCreated.Inc()
		summary.PlansCreated++
	}
}

// writePlan resolves a spec's steps to store ids, checks every step role
// against the roles its target kind allows, and writes the plan
// atomically. Resolution is all-or-nothing: any unresolvable or
// disallowed step rejects the whole plan with a validation error.
func (s *Service) writePlan(ctx context.Context, spec plan.Spec, look *lookups) error {
	var resolved []plan.ResolvedStep
	for i, level := range spec.Steps {
		for _, step := range level {
			roleID, ok := look.roles[step.Role]
			if !ok {
				return apperrors.NewValidationError("unknown role", step.Role)
			}
			priorityID, ok := look.priorities[step.Priority]
			if !ok {
				return apperrors.NewValidationError("unknown priority", step.Priority)
			}

			allowed, err := s.plans.AllowedRolesForTarget(ctx, step.Target)
			if err != nil {
				if apperrors.IsNotFoundError(err) {
					return apperrors.NewValidationError("step target missing", step.Target)
				}
				return err
			}
			targetID, ok := allowed[roleID]
			if !ok {
				return apperrors.NewValidationError(
					"role not allowed for target",
					fmt.Sprintf("%s on %s", step.Role, step.Target),
				)
			}

			resolved = append(resolved, plan.ResolvedStep{
				Step:       i + 1,
				RoleID:     roleID,
				PriorityID: priorityID,
				TargetID:   targetID,
				Template:   step.Template,
				Wait:       step.Wait,
				Repeat:     step.Repeat,
			})
		}
	}

	_, err := s.plans.ReplacePlan(ctx, plan.NewRecord(spec), resolved)
	return err
}

// pruneUsers removes stored users absent from the roster snapshot.
func (s *Service) pruneUsers(
	ctx context.Context,
	rosterUsers map[string]map[string]string,
	dbUsers map[string]target.Contacts,
	summary *PassSummary,
) {
	vanished := setutil.FromKeys(dbUsers).Diff(setutil.FromKeys(rosterUsers))
	for _, name := range vanished.ToSlice() {
		if s.pruneTarget(ctx, name, target.KindUser) {
			metrics.UsersPurged.Inc()
			summary.UsersPruned++
		}
	}
}

// pruneTeams removes stored teams no longer in the roster and drops the
// active pointers of their generated plans, leaving the plan rows as
// history.
func (s *Service) pruneTeams(
	ctx context.Context,
	rosterTeams []string,
	dbTeams map[string]struct{},
	rules plan.Rules,
	summary *PassSummary,
) {
	expected := setutil.NewStringSetWithCap(len(rosterTeams))
	for _, team := range rosterTeams {
		expected.Add(externalName(team))
	}

	for _, name := range setutil.FromKeys(dbTeams).Diff(expected).ToSlice() {
		for _, spec := range plan.DerivePlans(name, rules) {
			if s.cfg.DryRun {
				s.logger.Infow("dry-run: would deactivate plan", "plan", spec.Name)
				continue
			}
			planID, err := s.plans.PlanIDByName(ctx, spec.Name)
			if err != nil {
				if !apperrors.IsNotFoundError(err) {
					s.logger.Errorw("failed to look up plan", "plan", spec.Name, "error", err)
					metrics.StoreErrors.Inc()
				}
				continue
			}
			if err := s.plans.RemoveActivePointer(ctx, planID); err != nil {
				s.logger.Errorw("failed to deactivate plan", "plan", spec.Name, "error", err)
				metrics.StoreErrors.Inc()
			}
		}

		if s.pruneTarget(ctx, name, target.KindTeam) {
			metrics.OthersPurged.Inc()
			summary.TeamsPruned++
		}
	}
}

// pruneTarget removes one vanished target. With purge enabled it tries a
// hard delete first and downgrades to deactivation when the target is
// still referenced by plan history; otherwise it deactivates directly.
func (s *Service) pruneTarget(ctx context.Context, name string, kind target.Kind) bool {
	if s.cfg.DryRun {
		s.logger.Infow("dry-run: would prune target", "target", name, "kind", kind)
		return true
	}

	if s.cfg.Purge {
		err := s.targets.DeleteTarget(ctx, name, kind)
		switch {
		case err == nil:
			s.logger.Infow("deleted vanished target", "target", name, "kind", kind)
			return true
		case apperrors.IsConflictError(err):
			s.logger.Infow("target still referenced, deactivating instead",
				"target", name, "kind", kind)
		default:
			s.logger.Errorw("failed to delete target", "target", name, "kind", kind, "error", err)
			metrics.StoreErrors.Inc()
			return false
		}
	}

	if err := s.targets.SetActive(ctx, name, kind, false); err != nil {
		s.logger.Errorw("failed to deactivate target", "target", name, "kind", kind, "error", err)
		metrics.StoreErrors.Inc()
		return false
	}
	s.logger.Infow("deactivated vanished target", "target", name, "kind", kind)
	return true
}

// externalName is the store name of a roster entity: the roster name
// plus the builtin suffix marking rows this daemon owns.
func externalName(rosterName string) string {
	return rosterName + plan.BuiltinSuffix
}
