package worker

import (
	"github.com/spatialgw/spatialworker/engine/arbitration"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/proto"
	"github.com/spatialgw/spatialworker/engine/spawnqueue"
)

// HandleOpList applies the ops in order
func (w *Worker) HandleOpList(ol *proto.OpList) {
	if consts.DEBUG_OPS {
		gwlog.Debugf("%s: op list of tick %d with %d ops", w, ol.Tick, ol.Len())
	}
	for _, op := range ol.Ops {
		w.HandleOp(op)
	}
}

// HandleOp applies one inbound op
func (w *Worker) HandleOp(op proto.Op) {
	id := op.Entity()
	if !id.IsValid() {
		gwlog.Warnf("%s: drop %s op of invalid entity %s", w, op.MsgType(), id)
		return
	}
	if consts.DEBUG_OPS {
		gwlog.Debugf("%s: %s %s", w, op.MsgType(), id)
	}

	switch o := op.(type) {
	case *proto.OpAddEntity:
		w.handleAddEntity(id)
	case *proto.OpRemoveEntity:
		w.handleRemoveEntity(id)
	case *proto.OpAuthorityChange:
		w.handleAuthorityChange(id, o.Authoritative)
	case *proto.OpComponentUpdate:
		w.handleComponentUpdate(o)
	case *proto.OpCreateEntityResponse:
		w.handleCreateEntityResponse(o)
	default:
		gwlog.TraceError("%s: unknown op type %s", w, op.MsgType())
	}
}

func (w *Worker) handleAddEntity(id common.EntityID) {
	if w.allocator.IsPending(id) {
		// an entity created by this worker
		w.confirmCreated(id)
		return
	}
	if _, ok := w.cache.ResolveRef(identity.EntityRef(id)); ok {
		if consts.DEBUG_SPAWN {
			gwlog.Debugf("%s: entity %s added but already materialized", w, id)
		}
		return
	}
	if w.queue.Contains(id) {
		if consts.DEBUG_SPAWN {
			gwlog.Debugf("%s: entity %s added but already queued", w, id)
		}
		return
	}
	tier, ok := w.chain.Arbitrate(w.queue, w.cache, id)
	if consts.DEBUG_SPAWN {
		gwlog.Debugf("%s: entity %s queued in %s: %v", w, id, tier, ok)
	}
}

func (w *Worker) handleRemoveEntity(id common.EntityID) {
	w.queue.Remove(id)
	if h, ok := w.cache.ResolveRef(identity.EntityRef(id)); ok && w.materializer != nil {
		w.materializer.Release(id, h)
	} else if f, ok := w.materializer.(Forgetter); ok {
		f.Forget(id)
	}
	w.cache.UnregisterEntity(id)
	if w.allocator.Cancel(id) {
		gwlog.Warnf("%s: pending entity %s removed before its creation was confirmed", w, id)
	}
	w.tracker.Remove(id)
	w.authoritative.Del(id)
	delete(w.interests, id)
}

func (w *Worker) handleAuthorityChange(id common.EntityID, authoritative bool) {
	if authoritative {
		w.authoritative.Add(id)
		if c := w.interests[id]; c != nil {
			w.logInterestError(c.OnActivate(false))
		}
	} else {
		w.authoritative.Del(id)
		if w.allocator.Cancel(id) {
			gwlog.Warnf("%s: lost authority over pending entity %s, reservation cancelled", w, id)
		}
		if c := w.interests[id]; c != nil {
			w.logInterestError(c.OnDeactivate())
		}
	}
	for _, l := range w.authorityListeners {
		l(id, authoritative)
	}
}

func (w *Worker) handleComponentUpdate(op *proto.OpComponentUpdate) {
	id := op.EntityID
	if x, z, ok := op.Position(); ok {
		w.tracker.Update(id, float32(x), float32(z))
	}
	if player, ok := op.IsPlayer(); ok {
		w.tracker.SetPlayer(id, player)
	}
	w.promote(id)
	if w.tracker.IsPlayer(id) {
		// entities the player has come near may now be High
		for _, nid := range w.tracker.Neighbors(id) {
			w.promote(nid)
		}
	}
}

// promote re-arbitrates an entity waiting in Low, moving it to High if the chain now says so
func (w *Worker) promote(id common.EntityID) {
	if tier, ok := w.queue.TierOf(id); !ok || tier != spawnqueue.Low {
		return
	}
	v := w.chain.Evaluate(w.arbitrationContext(id))
	if tier, decided := v.Priority.Tier(); !decided || tier != spawnqueue.High {
		return
	}
	w.queue.Remove(id)
	arbitration.Place(w.queue, id, v)
	if consts.DEBUG_SPAWN {
		gwlog.Debugf("%s: entity %s promoted to %s", w, id, spawnqueue.High)
	}
}

func (w *Worker) arbitrationContext(id common.EntityID) *arbitration.Context {
	return &arbitration.Context{Entity: id, Queue: w.queue.View(), Resolver: w.cache}
}

func (w *Worker) confirmCreated(id common.EntityID) {
	if err := w.allocator.ConfirmCreated(id); err != nil {
		gwlog.Errorf("%s: confirm entity %s failed: %v", w, id, err)
	}
}

func (w *Worker) handleCreateEntityResponse(op *proto.OpCreateEntityResponse) {
	id := op.EntityID
	if op.Success {
		if w.allocator.IsPending(id) {
			w.confirmCreated(id)
		}
		return
	}

	gwlog.Warnf("%s: creation of entity %s failed: %s", w, id, op.Message)
	if !w.allocator.Cancel(id) {
		return
	}
	if h, ok := w.cache.ResolveRef(identity.EntityRef(id)); ok && w.materializer != nil {
		w.materializer.Release(id, h)
	}
	w.cache.UnregisterEntity(id)
	delete(w.interests, id)
}
