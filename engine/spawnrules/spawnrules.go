// Package spawnrules provides the stock arbitration predicates and the rule table that
// installs them from a TOML file.
package spawnrules

import (
	"github.com/spatialgw/spatialworker/engine/arbitration"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/proximity"
)

// AlwaysHigh places every entity at the end of the High tier
func AlwaysHigh() arbitration.Predicate {
	return Always(arbitration.High, false)
}

// Always decides priority for every entity, in front of the tier if front is set
func Always(priority arbitration.Priority, front bool) arbitration.Predicate {
	return func(ctx *arbitration.Context) (arbitration.Verdict, error) {
		return verdict(ctx, priority, front), nil
	}
}

// NearPlayer decides priority for entities within interest distance of a player
func NearPlayer(tracker *proximity.Tracker, priority arbitration.Priority, front bool) arbitration.Predicate {
	return func(ctx *arbitration.Context) (arbitration.Verdict, error) {
		if !tracker.IsNearPlayer(ctx.Entity) {
			return arbitration.Verdict{}, nil
		}
		return verdict(ctx, priority, front), nil
	}
}

// Player decides priority for player entities
func Player(tracker *proximity.Tracker, priority arbitration.Priority, front bool) arbitration.Predicate {
	return func(ctx *arbitration.Context) (arbitration.Verdict, error) {
		if !tracker.IsPlayer(ctx.Entity) {
			return arbitration.Verdict{}, nil
		}
		return verdict(ctx, priority, front), nil
	}
}

// IDRange decides priority for entity ids in [min, max]
func IDRange(min, max int64, priority arbitration.Priority, front bool) arbitration.Predicate {
	return func(ctx *arbitration.Context) (arbitration.Verdict, error) {
		id := int64(ctx.Entity)
		if id < min || id > max {
			return arbitration.Verdict{}, nil
		}
		return verdict(ctx, priority, front), nil
	}
}

// Resolved decides priority for entities whose root object already has a local handle
func Resolved(priority arbitration.Priority, front bool) arbitration.Predicate {
	return func(ctx *arbitration.Context) (arbitration.Verdict, error) {
		if ctx.Resolver == nil {
			return arbitration.Verdict{}, nil
		}
		if _, ok := ctx.Resolver.ResolveRef(identity.EntityRef(ctx.Entity)); !ok {
			return arbitration.Verdict{}, nil
		}
		return verdict(ctx, priority, front), nil
	}
}

func verdict(ctx *arbitration.Context, priority arbitration.Priority, front bool) arbitration.Verdict {
	v := arbitration.Verdict{Priority: priority}
	if tier, ok := priority.Tier(); ok && front {
		pos := ctx.Queue.Begin(tier)
		v.Before = &pos
	}
	return v
}
