// Package spawnqueue holds the entities waiting to be materialized, in two priority tiers.
package spawnqueue

import (
	"fmt"

	"github.com/kamstrup/intmap"
	"github.com/spatialgw/spatialworker/engine/common"
)

// Tier is the priority tier of a queued entity
type Tier int

const (
	// High tier always drains before Low
	High Tier = iota
	// Low tier
	Low
	numTiers
)

func (t Tier) String() string {
	switch t {
	case High:
		return "High"
	case Low:
		return "Low"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// IsValid returns if t is High or Low
func (t Tier) IsValid() bool {
	return t == High || t == Low
}

// Position addresses a slot in a tier; Index == LenTier(Tier) is the end of the tier
type Position struct {
	Tier  Tier
	Index int
}

func (p Position) String() string {
	return fmt.Sprintf("%s[%d]", p.Tier, p.Index)
}

// Queue is the two tier spawn queue. An entity is resident at most once across both tiers.
type Queue struct {
	tiers    [numTiers][]common.EntityID
	resident *intmap.Map[common.EntityID, Tier]
}

// New creates an empty Queue
func New() *Queue {
	return &Queue{
		resident: intmap.New[common.EntityID, Tier](256),
	}
}

// PushHigh appends the entity to the end of the High tier
func (q *Queue) PushHigh(id common.EntityID) bool {
	return q.InsertBefore(Position{High, -1}, id)
}

// PushLow appends the entity to the end of the Low tier
func (q *Queue) PushLow(id common.EntityID) bool {
	return q.InsertBefore(Position{Low, -1}, id)
}

// InsertBefore inserts the entity before pos. A negative Index means the end of the tier.
// An existing occurrence of the entity is removed first.
// Invalid ids, tiers and out of range indexes are rejected.
func (q *Queue) InsertBefore(pos Position, id common.EntityID) bool {
	if !id.IsValid() || !pos.Tier.IsValid() {
		return false
	}
	if pos.Index > len(q.tiers[pos.Tier]) {
		return false
	}

	if oldTier, ok := q.resident.Get(id); ok {
		oldIndex := q.indexOf(oldTier, id)
		q.removeAt(oldTier, oldIndex)
		if oldTier == pos.Tier && pos.Index > oldIndex {
			pos.Index--
		}
	}

	tier := q.tiers[pos.Tier]
	if pos.Index < 0 || pos.Index >= len(tier) {
		tier = append(tier, id)
	} else {
		tier = append(tier, common.InvalidEntityID)
		copy(tier[pos.Index+1:], tier[pos.Index:])
		tier[pos.Index] = id
	}
	q.tiers[pos.Tier] = tier
	q.resident.Put(id, pos.Tier)
	return true
}

// PopFront removes and returns the first entity, High tier first
func (q *Queue) PopFront() (common.EntityID, bool) {
	for t := High; t < numTiers; t++ {
		if len(q.tiers[t]) > 0 {
			id := q.tiers[t][0]
			q.removeAt(t, 0)
			return id, true
		}
	}
	return common.InvalidEntityID, false
}

// Remove removes the entity from whichever tier holds it
func (q *Queue) Remove(id common.EntityID) bool {
	t, ok := q.resident.Get(id)
	if !ok {
		return false
	}
	q.removeAt(t, q.indexOf(t, id))
	return true
}

// Contains returns if the entity is queued
func (q *Queue) Contains(id common.EntityID) bool {
	return q.resident.Has(id)
}

// TierOf returns the tier holding the entity
func (q *Queue) TierOf(id common.EntityID) (Tier, bool) {
	return q.resident.Get(id)
}

// Len returns the number of queued entities
func (q *Queue) Len() int {
	return len(q.tiers[High]) + len(q.tiers[Low])
}

// LenTier returns the number of entities in the tier
func (q *Queue) LenTier(t Tier) int {
	if !t.IsValid() {
		return 0
	}
	return len(q.tiers[t])
}

// Snapshot returns a copy of the entities in the tier, in pop order
func (q *Queue) Snapshot(t Tier) []common.EntityID {
	if !t.IsValid() {
		return nil
	}
	return append([]common.EntityID(nil), q.tiers[t]...)
}

// Clear empties both tiers
func (q *Queue) Clear() {
	for t := range q.tiers {
		q.tiers[t] = q.tiers[t][:0]
	}
	q.resident.Clear()
}

// View returns the read-only view handed to arbitration predicates
func (q *Queue) View() View {
	return View{q: q}
}

func (q *Queue) indexOf(t Tier, id common.EntityID) int {
	for i, qid := range q.tiers[t] {
		if qid == id {
			return i
		}
	}
	panic(fmt.Errorf("spawnqueue: resident entity %s not found in %s", id, t))
}

func (q *Queue) removeAt(t Tier, i int) {
	tier := q.tiers[t]
	id := tier[i]
	copy(tier[i:], tier[i+1:])
	tier[len(tier)-1] = common.InvalidEntityID
	q.tiers[t] = tier[:len(tier)-1]
	q.resident.Del(id)
}

// View is a read-only window on a Queue
type View struct {
	q *Queue
}

// Len returns the number of entities in the tier
func (v View) Len(t Tier) int {
	if v.q == nil {
		return 0
	}
	return v.q.LenTier(t)
}

// At returns the entity at pos, or InvalidEntityID when out of range
func (v View) At(pos Position) common.EntityID {
	if pos.Index < 0 || pos.Index >= v.Len(pos.Tier) {
		return common.InvalidEntityID
	}
	return v.q.tiers[pos.Tier][pos.Index]
}

// Find returns the position of the entity
func (v View) Find(id common.EntityID) (Position, bool) {
	if v.q == nil {
		return Position{}, false
	}
	t, ok := v.q.resident.Get(id)
	if !ok {
		return Position{}, false
	}
	return Position{t, v.q.indexOf(t, id)}, true
}

// Begin returns the first position of the tier
func (v View) Begin(t Tier) Position {
	return Position{t, 0}
}

// End returns the position past the last entity of the tier
func (v View) End(t Tier) Position {
	return Position{t, v.Len(t)}
}
