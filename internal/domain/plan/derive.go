package plan

// DerivePlans computes the canonical set of plan specifications a team
// should have under the given rules. It is deterministic and
// side-effect-free: identical inputs always produce identical specs, so
// the same call backs both plan creation and stored-plan validation.
//
// Every team receives the baseline private plans for the applicable time
// periods. The standby branch adds a standby escalation plan; the scrum
// branch adds an SRT escalation plan when the team's space is known.
// A scrum team whose space (or space mapping) is unknown silently keeps
// only its private plans here; callers can detect the skip by checking
// the classification against the derived kinds.
func DerivePlans(team string, r Rules) []Spec {
	base := BaseName(team)
	classification := Classify(team, r)

	var specs []Spec
	switch classification {
	case ClassificationStandby:
		specs = append(specs, standbyPlan(base, classification, r))
	case ClassificationScrum:
		if spec, ok := scrumTeamPlan(base, classification, r); ok {
			specs = append(specs, spec)
		}
	}

	return append(specs, privatePlans(base, classification)...)
}

// HasScrumEscalation reports whether a derived spec list contains the
// scrum-team SRT escalation plan.
func HasScrumEscalation(specs []Spec) bool {
	for _, s := range specs {
		if s.Kind == KindScrumTeam {
			return true
		}
	}
	return false
}

func privatePlans(base string, classification Classification) []Spec {
	specs := make([]Spec, 0, len(privatePeriods))
	for _, period := range privatePeriods {
		specs = append(specs, Spec{
			Name:           base + "-" + period + suffixPrivate + BuiltinSuffix,
			Team:           base,
			Kind:           KindPrivate,
			Classification: classification,
			Description:    descriptionPrivate,
			StepCount:      stepCountPrivate,
			Steps:          privateSteps(base + "-" + period + BuiltinSuffix),
		})
	}
	return specs
}

func standbyPlan(base string, classification Classification, r Rules) Spec {
	team := base + "-" + PeriodStandby + BuiltinSuffix
	escalation := r.StandbyEscalationTeam + BuiltinSuffix
	return Spec{
		Name:           base + "-" + PeriodStandby + suffixWithStandby + BuiltinSuffix,
		Team:           base,
		Kind:           KindStandby,
		Classification: classification,
		Description:    descriptionStandby,
		StepCount:      stepCountStandby,
		Steps:          standbySteps(team, escalation),
	}
}

func scrumTeamPlan(base string, classification Classification, r Rules) (Spec, bool) {
	space, ok := r.ScrumSpaces[base]
	if !ok {
		return Spec{}, false
	}
	srtBase, ok := r.SpaceToSRT[space]
	if !ok {
		return Spec{}, false
	}

	team := base + "-" + Period24x7 + BuiltinSuffix
	standbySupport := r.StandbySupportTeam + BuiltinSuffix
	srt := srtBase + BuiltinSuffix
	standbyEscalation := r.StandbyEscalationTeam + BuiltinSuffix

	return Spec{
		Name:           base + "-" + Period24x7 + suffixWithSRT + BuiltinSuffix,
		Team:           base,
		Kind:           KindScrumTeam,
		Classification: classification,
		Description:    descriptionScrumTeam,
		StepCount:      stepCountScrumTeam,
		Steps:          scrumTeamSteps(team, standbySupport, srt, standbyEscalation),
	}, true
}
