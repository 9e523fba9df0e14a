package worker

import (
	"github.com/pkg/errors"
	"golang.org/x/net/context"

	"github.com/spatialgw/spatialworker/engine/async"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/identity"
)

// PrepareFunc loads what an entity needs in a background job
type PrepareFunc func(ctx context.Context, id common.EntityID) (interface{}, error)

// BuildFunc builds the local object from the prepared data on the simulation routine
type BuildFunc func(id common.EntityID, h identity.LocalHandle, prepared interface{}) error

type prepareState struct {
	done     bool
	prepared interface{}
	err      error
}

// AsyncMaterializer runs Prepare in an async job group and defers the entity with ErrRequeue
// until the job has finished, then runs Build. A failed Prepare drops the entity.
type AsyncMaterializer struct {
	group   string
	prepare PrepareFunc
	build   BuildFunc
	release func(id common.EntityID, h identity.LocalHandle)
	states  map[common.EntityID]*prepareState
}

// NewAsyncMaterializer creates an AsyncMaterializer running prepare jobs in the group; release may be nil
func NewAsyncMaterializer(group string, prepare PrepareFunc, build BuildFunc, release func(id common.EntityID, h identity.LocalHandle)) *AsyncMaterializer {
	return &AsyncMaterializer{
		group:   group,
		prepare: prepare,
		build:   build,
		release: release,
		states:  map[common.EntityID]*prepareState{},
	}
}

// Materialize starts or checks the prepare job of the entity
func (m *AsyncMaterializer) Materialize(id common.EntityID, h identity.LocalHandle) error {
	state := m.states[id]
	if state == nil {
		state = &prepareState{}
		m.states[id] = state
		async.AppendAsyncJob(m.group, func(ctx context.Context) (interface{}, error) {
			return m.prepare(ctx, id)
		}, func(res interface{}, err error) {
			state.done = true
			state.prepared = res
			state.err = err
		})
		return errors.Wrapf(ErrRequeue, "prepare %s", id)
	}
	if !state.done {
		return errors.Wrapf(ErrRequeue, "prepare %s", id)
	}

	delete(m.states, id)
	if state.err != nil {
		return errors.Wrapf(state.err, "prepare %s", id)
	}
	if m.build == nil {
		return nil
	}
	return m.build(id, h, state.prepared)
}

// Release forgets the prepare state of the entity and releases its object
func (m *AsyncMaterializer) Release(id common.EntityID, h identity.LocalHandle) {
	delete(m.states, id)
	if m.release != nil {
		m.release(id, h)
	}
}

// Forget drops the prepare state of an entity removed before it was materialized
func (m *AsyncMaterializer) Forget(id common.EntityID) {
	delete(m.states, id)
}

// Preparing returns the number of entities with a started prepare job
func (m *AsyncMaterializer) Preparing() int {
	return len(m.states)
}
