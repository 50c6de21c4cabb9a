package sync

import (
	"context"
	"fmt"

	"targetsync/internal/domain/plan"
	"targetsync/internal/domain/target"
)

// lookups caches the enumeration tables for the duration of one pass and
// implements plan.Resolver for stored-plan validation. Target names are
// resolved lazily in batches, since most passes only touch a handful of
// step targets.
type lookups struct {
	ctx     context.Context
	targets target.Repository

	roles         map[string]uint
	priorities    map[string]uint
	roleNames     map[uint]string
	priorityNames map[uint]string
	targetNames   map[uint]string
}

func newLookups(ctx context.Context, targets target.Repository, plans plan.Repository) (*lookups, error) {
	roles, err := plans.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	priorities, err := plans.Priorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load priorities: %w", err)
	}

	l := &lookups{
		ctx:           ctx,
		targets:       targets,
		roles:         roles,
		priorities:    priorities,
		roleNames:     make(map[uint]string, len(roles)),
		priorityNames: make(map[uint]string, len(priorities)),
		targetNames:   make(map[uint]string),
	}
	for name, id := range roles {
		l.roleNames[id] = name
	}
	for name, id := range priorities {
		l.priorityNames[id] = name
	}
	return l, nil
}

// prefetchTargets resolves a batch of target ids into the name cache
// ahead of per-step lookups.
func (l *lookups) prefetchTargets(ids []uint) error {
	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := l.targetNames[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	names, err := l.targets.NamesByID(l.ctx, missing)
	if err != nil {
		return fmt.Errorf("failed to resolve step targets: %w", err)
	}
	for id, name := range names {
		l.targetNames[id] = name
	}
	return nil
}

func (l *lookups) RoleName(id uint) (string, bool) {
	name, ok := l.roleNames[id]
	return name, ok
}

func (l *lookups) PriorityName(id uint) (string, bool) {
	name, ok := l.priorityNames[id]
	return name, ok
}

func (l *lookups) TargetName(id uint) (string, bool) {
	name, ok := l.targetNames[id]
	if ok {
		return name, true
	}
	if err := l.prefetchTargets([]uint{id}); err != nil {
		return "", false
	}
	name, ok = l.targetNames[id]
	return name, ok
}

var _ plan.Resolver = (*lookups)(nil)
