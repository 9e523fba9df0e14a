package worker

import (
	"github.com/pkg/errors"

	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/gwutils"
	"github.com/spatialgw/spatialworker/engine/gwvar"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/opmon"
	"github.com/spatialgw/spatialworker/engine/proto"
)

// ErrRequeue is returned by a Materializer, possibly wrapped, to retry the entity later.
// The entity is queued again at the end of Low; any other error drops it.
var ErrRequeue = errors.New("materialization deferred")

// Materializer builds and releases the local objects of remote entities
type Materializer interface {
	Materialize(id common.EntityID, h identity.LocalHandle) error
	Release(id common.EntityID, h identity.LocalHandle)
}

// Forgetter is implemented by materializers keeping state for entities that are not materialized yet
type Forgetter interface {
	Forget(id common.EntityID)
}

// MaterializerFuncs adapts functions to Materializer; nil functions do nothing
type MaterializerFuncs struct {
	MaterializeFunc func(id common.EntityID, h identity.LocalHandle) error
	ReleaseFunc     func(id common.EntityID, h identity.LocalHandle)
}

// Materialize calls MaterializeFunc
func (m MaterializerFuncs) Materialize(id common.EntityID, h identity.LocalHandle) error {
	if m.MaterializeFunc == nil {
		return nil
	}
	return m.MaterializeFunc(id, h)
}

// Release calls ReleaseFunc
func (m MaterializerFuncs) Release(id common.EntityID, h identity.LocalHandle) {
	if m.ReleaseFunc != nil {
		m.ReleaseFunc(id, h)
	}
}

// MaterializeStep pops up to n entities from the spawn queue and materializes them, High first.
// It returns the number of entities materialized.
func (w *Worker) MaterializeStep(n int) int {
	var requeue []common.EntityID
	done := 0
	for i := 0; i < n; i++ {
		id, ok := w.queue.PopFront()
		if !ok {
			break
		}
		err := w.materialize(id)
		if err == nil {
			done++
			continue
		}
		if errors.Cause(err) == ErrRequeue {
			if consts.DEBUG_SPAWN {
				gwlog.Debugf("%s: materialization of %s deferred", w, id)
			}
			requeue = append(requeue, id)
		} else {
			gwlog.Errorf("%s: materialization of %s failed, dropped: %v", w, id, err)
		}
	}

	// requeued entities wait for the next step
	for _, id := range requeue {
		w.queue.PushLow(id)
	}
	if done > 0 {
		gwvar.MaterializedEntities.Add(done)
	}
	return done
}

func (w *Worker) materialize(id common.EntityID) error {
	ref := identity.EntityRef(id)
	h, err := w.cache.AssignRemoteEntity(ref)
	if err != nil {
		return err
	}
	if w.materializer == nil {
		return nil
	}

	op := opmon.StartOperation("worker.materialize")
	var merr error
	if perr := gwutils.CatchPanic(func() { merr = w.materializer.Materialize(id, h) }); perr != nil {
		merr = perr
	}
	op.Finish(consts.OPMON_MATERIALIZE_WARN_THRESHOLD)

	if merr != nil {
		w.cache.UnregisterHandle(h)
		return merr
	}
	return nil
}

// SpawnLocal creates a new entity on this worker: it reserves an id, registers the object at path
// of the entity ("" for the root) and requests the creation from the deployment. The id stays pending
// until the entity is added or the creation is answered.
func (w *Worker) SpawnLocal(path string) (common.EntityID, identity.LocalHandle, error) {
	if !w.IsConnected() {
		return common.InvalidEntityID, identity.InvalidHandle, ErrNotConnected
	}
	id, h, err := w.allocator.AllocateAndResolve(path)
	if err != nil {
		return common.InvalidEntityID, identity.InvalidHandle, errors.Wrapf(err, "%s: spawn local %q", w, path)
	}
	w.send(&proto.CreateEntityRequest{EntityID: id, Path: path})
	if consts.DEBUG_SPAWN {
		gwlog.Debugf("%s: spawn local entity %s as %s", w, id, h)
	}
	return id, h, nil
}
