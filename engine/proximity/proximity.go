// Package proximity tracks which entities are within interest distance of players,
// fed by position updates of the inbound op stream.
package proximity

import (
	"github.com/kamstrup/intmap"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/xiaonanln/go-aoi"
)

// DefaultDistance is the neighbor distance when none is configured
const DefaultDistance = 100

type node struct {
	id        common.EntityID
	aoi       aoi.AOI
	isPlayer  bool
	neighbors common.EntityIDSet
}

func (n *node) OnEnterAOI(other *aoi.AOI) {
	o := other.Data.(*node)
	n.neighbors.Add(o.id)
	o.neighbors.Add(n.id)
}

func (n *node) OnLeaveAOI(other *aoi.AOI) {
	o := other.Data.(*node)
	n.neighbors.Del(o.id)
	o.neighbors.Del(n.id)
}

// Tracker maintains neighborhoods of positioned entities. It is owned by the simulation routine.
type Tracker struct {
	dist  aoi.Coord
	mgr   aoi.AOIManager
	nodes *intmap.Map[common.EntityID, *node]
}

// NewTracker creates a Tracker; entities within dist on both axes are neighbors
func NewTracker(dist float32) *Tracker {
	if dist <= 0 {
		dist = DefaultDistance
	}
	return &Tracker{
		dist:  aoi.Coord(dist),
		mgr:   aoi.NewXZListAOIManager(aoi.Coord(dist)),
		nodes: intmap.New[common.EntityID, *node](256),
	}
}

// Update enters or moves the entity to (x, z)
func (t *Tracker) Update(id common.EntityID, x, z float32) {
	if n, ok := t.nodes.Get(id); ok {
		t.mgr.Moved(&n.aoi, aoi.Coord(x), aoi.Coord(z))
		return
	}
	n := &node{id: id, neighbors: common.EntityIDSet{}}
	aoi.InitAOI(&n.aoi, t.dist, n, n)
	t.nodes.Put(id, n)
	t.mgr.Enter(&n.aoi, aoi.Coord(x), aoi.Coord(z))
}

// SetPlayer marks whether the entity is a player
func (t *Tracker) SetPlayer(id common.EntityID, isPlayer bool) {
	if n, ok := t.nodes.Get(id); ok {
		n.isPlayer = isPlayer
	}
}

// Remove leaves the entity; no-op if it is not tracked
func (t *Tracker) Remove(id common.EntityID) {
	n, ok := t.nodes.Get(id)
	if !ok {
		return
	}
	t.mgr.Leave(&n.aoi)
	for nid := range n.neighbors {
		if other, ok := t.nodes.Get(nid); ok {
			other.neighbors.Del(id)
		}
	}
	t.nodes.Del(id)
}

// Contains returns if the entity is tracked
func (t *Tracker) Contains(id common.EntityID) bool {
	return t.nodes.Has(id)
}

// Len returns the number of tracked entities
func (t *Tracker) Len() int {
	return t.nodes.Len()
}

// IsPlayer returns if the entity is a tracked player
func (t *Tracker) IsPlayer(id common.EntityID) bool {
	n, ok := t.nodes.Get(id)
	return ok && n.isPlayer
}

// Neighbors returns the neighbors of the entity in ascending order
func (t *Tracker) Neighbors(id common.EntityID) []common.EntityID {
	n, ok := t.nodes.Get(id)
	if !ok {
		return nil
	}
	return n.neighbors.ToList()
}

// IsNearPlayer returns if any neighbor of the entity is a player
func (t *Tracker) IsNearPlayer(id common.EntityID) bool {
	n, ok := t.nodes.Get(id)
	if !ok {
		return false
	}
	for nid := range n.neighbors {
		if t.IsPlayer(nid) {
			return true
		}
	}
	return false
}
