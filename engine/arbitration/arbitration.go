// Package arbitration decides the spawn priority of incoming entities with an ordered
// chain of predicates. The first predicate with an opinion wins.
package arbitration

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/gwutils"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/opmon"
	"github.com/spatialgw/spatialworker/engine/spawnqueue"
)

// Priority is the opinion of a predicate
type Priority int

const (
	// Undecided lets the next predicate decide
	Undecided Priority = iota
	// High spawns before every Low entity
	High
	// Low spawns after every High entity
	Low
)

func (p Priority) String() string {
	switch p {
	case Undecided:
		return "Undecided"
	case High:
		return "High"
	case Low:
		return "Low"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Tier returns the queue tier of a decided priority
func (p Priority) Tier() (spawnqueue.Tier, bool) {
	switch p {
	case High:
		return spawnqueue.High, true
	case Low:
		return spawnqueue.Low, true
	}
	return spawnqueue.Low, false
}

// Verdict is the result of a predicate. Before optionally names the insertion point in the
// tier of Priority; nil appends to the end of the tier.
type Verdict struct {
	Priority Priority
	Before   *spawnqueue.Position
}

// Context is what a predicate may look at
type Context struct {
	Entity   common.EntityID
	Queue    spawnqueue.View
	Resolver identity.Resolver
}

// Predicate returns a verdict for ctx.Entity. Errors count as Undecided.
type Predicate func(ctx *Context) (Verdict, error)

// Handle identifies a registered predicate
type Handle uint64

// InvalidHandle is returned when a predicate cannot be registered
const InvalidHandle Handle = 0

type entry struct {
	handle    Handle
	name      string
	predicate Predicate
	failed    bool // failure already logged
}

// Chain is the ordered predicate chain. It is not goroutine-safe.
type Chain struct {
	entries    []*entry
	lastHandle Handle
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{}
}

func (c *Chain) newEntry(name string, predicate Predicate) *entry {
	c.lastHandle++
	return &entry{handle: c.lastHandle, name: name, predicate: predicate}
}

// PushFront registers the predicate before all others
func (c *Chain) PushFront(name string, predicate Predicate) Handle {
	if predicate == nil {
		gwlog.Warnf("arbitration: nil predicate %s not registered", name)
		return InvalidHandle
	}
	e := c.newEntry(name, predicate)
	c.entries = append([]*entry{e}, c.entries...)
	return e.handle
}

// PushBack registers the predicate after all others
func (c *Chain) PushBack(name string, predicate Predicate) Handle {
	if predicate == nil {
		gwlog.Warnf("arbitration: nil predicate %s not registered", name)
		return InvalidHandle
	}
	e := c.newEntry(name, predicate)
	c.entries = append(c.entries, e)
	return e.handle
}

// Remove unregisters the predicate of the handle
func (c *Chain) Remove(h Handle) bool {
	for i, e := range c.entries {
		if e.handle == h {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered predicates
func (c *Chain) Len() int {
	return len(c.entries)
}

// Names returns the predicate names in evaluation order
func (c *Chain) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Evaluate runs the predicates in order and returns the first decided verdict
func (c *Chain) Evaluate(ctx *Context) Verdict {
	entries := c.entries
	for _, e := range entries {
		v, err := e.run(ctx)
		if err != nil {
			if !e.failed {
				e.failed = true
				gwlog.Errorf("arbitration: predicate %s failed on entity %s, treated as undecided: %v", e.name, ctx.Entity, err)
			}
			continue
		}
		if v.Priority == Undecided {
			continue
		}
		if _, ok := v.Priority.Tier(); !ok {
			if !e.failed {
				e.failed = true
				gwlog.Errorf("arbitration: predicate %s returned %s on entity %s, treated as undecided", e.name, v.Priority, ctx.Entity)
			}
			continue
		}
		if consts.DEBUG_SPAWN {
			gwlog.Debugf("arbitration: %s decided %s for entity %s", e.name, v.Priority, ctx.Entity)
		}
		return v
	}
	return Verdict{Priority: Undecided}
}

func (e *entry) run(ctx *Context) (v Verdict, err error) {
	if perr := gwutils.CatchPanic(func() {
		v, err = e.predicate(ctx)
	}); perr != nil {
		return Verdict{}, errors.Wrap(perr, e.name)
	}
	return
}

// Place queues the entity according to the verdict.
//
// Undecided appends to the end of Low. A Before position in the other tier or out of range
// is ignored and the entity is appended to its tier.
func Place(q *spawnqueue.Queue, id common.EntityID, v Verdict) (spawnqueue.Tier, bool) {
	tier, decided := v.Priority.Tier()
	if decided && v.Before != nil {
		if v.Before.Tier != tier {
			gwlog.Warnf("arbitration: entity %s placed %s before %s, position ignored", id, v.Priority, *v.Before)
		} else if q.InsertBefore(*v.Before, id) {
			return tier, true
		} else {
			gwlog.Warnf("arbitration: entity %s has invalid position %s, appended", id, *v.Before)
		}
	}
	if tier == spawnqueue.High {
		return tier, q.PushHigh(id)
	}
	return tier, q.PushLow(id)
}

// Arbitrate evaluates the chain for the entity and queues it
func (c *Chain) Arbitrate(q *spawnqueue.Queue, resolver identity.Resolver, id common.EntityID) (spawnqueue.Tier, bool) {
	op := opmon.StartOperation("arbitration.arbitrate")
	v := c.Evaluate(&Context{Entity: id, Queue: q.View(), Resolver: resolver})
	tier, ok := Place(q, id, v)
	op.Finish(consts.OPMON_ARBITRATION_WARN_THRESHOLD)
	return tier, ok
}
