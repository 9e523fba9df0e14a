package arbitration

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/spatialgw/spatialworker/engine/allocator"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/spawnqueue"
)

func constant(p Priority) Predicate {
	return func(ctx *Context) (Verdict, error) {
		return Verdict{Priority: p}, nil
	}
}

func TestEvaluateOrder(t *testing.T) {
	c := NewChain()
	assert.Equal(t, Undecided, c.Evaluate(&Context{Entity: 1}).Priority)

	c.PushBack("undecided", constant(Undecided))
	c.PushBack("low", constant(Low))
	assert.Equal(t, Low, c.Evaluate(&Context{Entity: 1}).Priority)

	h := c.PushFront("high", constant(High))
	assert.Equal(t, []string{"high", "undecided", "low"}, c.Names())
	assert.Equal(t, High, c.Evaluate(&Context{Entity: 1}).Priority)

	assert.T(t, c.Remove(h))
	assert.T(t, !c.Remove(h))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, Low, c.Evaluate(&Context{Entity: 1}).Priority)
}

func TestNilPredicateRejected(t *testing.T) {
	c := NewChain()
	assert.Equal(t, InvalidHandle, c.PushBack("nil", nil))
	assert.Equal(t, InvalidHandle, c.PushFront("nil", nil))
	assert.Equal(t, 0, c.Len())
}

func TestFailingPredicatesAreUndecided(t *testing.T) {
	c := NewChain()
	calls := 0
	c.PushBack("error", func(ctx *Context) (Verdict, error) {
		calls++
		return Verdict{Priority: High}, fmt.Errorf("lookup failed")
	})
	c.PushBack("panic", func(ctx *Context) (Verdict, error) {
		calls++
		panic("bad predicate")
	})
	c.PushBack("bogus", constant(Priority(42)))
	c.PushBack("low", constant(Low))

	for i := 0; i < 3; i++ {
		assert.Equal(t, Low, c.Evaluate(&Context{Entity: 5}).Priority)
	}
	assert.Equal(t, 6, calls)
	for _, e := range c.entries[:3] {
		assert.T(t, e.failed)
	}
}

func TestPlace(t *testing.T) {
	q := spawnqueue.New()
	q.PushHigh(1)
	q.PushHigh(2)
	q.PushLow(10)

	tier, ok := Place(q, 3, Verdict{Priority: High, Before: &spawnqueue.Position{Tier: spawnqueue.High, Index: 1}})
	assert.T(t, ok)
	assert.Equal(t, spawnqueue.High, tier)
	assert.Equal(t, []common.EntityID{1, 3, 2}, q.Snapshot(spawnqueue.High))

	// a position in the other tier is ignored
	tier, _ = Place(q, 4, Verdict{Priority: High, Before: &spawnqueue.Position{Tier: spawnqueue.Low, Index: 0}})
	assert.Equal(t, spawnqueue.High, tier)
	assert.Equal(t, []common.EntityID{1, 3, 2, 4}, q.Snapshot(spawnqueue.High))

	// out of range positions append
	Place(q, 11, Verdict{Priority: Low, Before: &spawnqueue.Position{Tier: spawnqueue.Low, Index: 9}})
	assert.Equal(t, []common.EntityID{10, 11}, q.Snapshot(spawnqueue.Low))

	// undecided appends to Low, FIFO
	tier, _ = Place(q, 12, Verdict{})
	assert.Equal(t, spawnqueue.Low, tier)
	Place(q, 13, Verdict{Priority: Undecided, Before: &spawnqueue.Position{Tier: spawnqueue.Low, Index: 0}})
	assert.Equal(t, []common.EntityID{10, 11, 12, 13}, q.Snapshot(spawnqueue.Low))

	_, ok = Place(q, common.InvalidEntityID, Verdict{Priority: High})
	assert.T(t, !ok)
}

func TestPredicateSeesQueue(t *testing.T) {
	q := spawnqueue.New()
	q.PushLow(7)
	q.PushLow(8)
	c := NewChain()
	// place entities with odd ids in front of the first even id
	c.PushBack("odd-before-even", func(ctx *Context) (Verdict, error) {
		if ctx.Entity%2 == 0 {
			return Verdict{}, nil
		}
		for i := 0; i < ctx.Queue.Len(spawnqueue.Low); i++ {
			pos := spawnqueue.Position{Tier: spawnqueue.Low, Index: i}
			if ctx.Queue.At(pos)%2 == 0 {
				return Verdict{Priority: Low, Before: &pos}, nil
			}
		}
		return Verdict{Priority: Low}, nil
	})
	c.Arbitrate(q, nil, 9)
	c.Arbitrate(q, nil, 10)
	assert.Equal(t, []common.EntityID{7, 9, 8, 10}, q.Snapshot(spawnqueue.Low))
}

// the same chain, queue and entity always produce the same placement
func TestArbitrationDeterminism(t *testing.T) {
	build := func() *Chain {
		c := NewChain()
		c.PushBack("multiple-of-3", func(ctx *Context) (Verdict, error) {
			if ctx.Entity%3 == 0 {
				return Verdict{Priority: High, Before: &spawnqueue.Position{Tier: spawnqueue.High, Index: 0}}, nil
			}
			return Verdict{}, nil
		})
		c.PushBack("resolved", func(ctx *Context) (Verdict, error) {
			if _, ok := ctx.Resolver.ResolveRef(identity.EntityRef(ctx.Entity)); ok {
				return Verdict{Priority: High}, nil
			}
			return Verdict{}, nil
		})
		return c
	}

	run := func() ([]common.EntityID, []common.EntityID) {
		rnd := rand.New(rand.NewSource(11))
		cache := identity.NewCache("")
		q := spawnqueue.New()
		c := build()
		for i := 0; i < 500; i++ {
			id := common.EntityID(rnd.Intn(100) + 1)
			if rnd.Intn(4) == 0 {
				cache.AssignRemoteEntity(identity.EntityRef(id))
			}
			c.Arbitrate(q, cache, id)
		}
		return q.Snapshot(spawnqueue.High), q.Snapshot(spawnqueue.Low)
	}

	h1, l1 := run()
	h2, l2 := run()
	assert.Equal(t, h1, h2)
	assert.Equal(t, l1, l2)
}

// a freshly allocated entity is promoted ahead of already queued low entities
func TestAllocatedEntityJumpsLowQueue(t *testing.T) {
	next := common.EntityID(500)
	alloc := allocator.New(allocator.AuthorityFunc(func() (common.EntityID, error) {
		next++
		return next, nil
	}), nil)
	e1, err := alloc.AllocateEntityID()
	assert.Equal(t, nil, err)

	q := spawnqueue.New()
	c := NewChain()
	c.PushBack("new-entities-first", func(ctx *Context) (Verdict, error) {
		if ctx.Entity >= e1 {
			return Verdict{Priority: High}, nil
		}
		return Verdict{}, nil
	})
	c.Arbitrate(q, nil, 3)
	c.Arbitrate(q, nil, 4)
	e2 := e1 + 1
	c.Arbitrate(q, nil, e2)

	first, ok := q.PopFront()
	assert.T(t, ok)
	assert.Equal(t, e2, first)
}
