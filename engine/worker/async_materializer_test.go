package worker

import (
	"fmt"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"golang.org/x/net/context"

	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/post"
	"github.com/spatialgw/spatialworker/engine/proto"
)

// stepUntil runs materialize steps until cond holds
func stepUntil(t *testing.T, w *Worker, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		post.Tick()
		w.MaterializeStep(10)
		time.Sleep(time.Millisecond)
	}
}

func TestAsyncMaterializer(t *testing.T) {
	built := map[common.EntityID]interface{}{}
	m := NewAsyncMaterializer("test_materialize", func(ctx context.Context, id common.EntityID) (interface{}, error) {
		if id == 2 {
			return nil, fmt.Errorf("asset missing")
		}
		return fmt.Sprintf("asset-%s", id), nil
	}, func(id common.EntityID, h identity.LocalHandle, prepared interface{}) error {
		built[id] = prepared
		return nil
	}, nil)
	w, _ := newTestWorker(t, Options{Materializer: m})

	w.HandleOp(&proto.OpAddEntity{EntityID: 1})
	w.HandleOp(&proto.OpAddEntity{EntityID: 2})
	assert.Equal(t, 0, w.MaterializeStep(10))
	assert.Equal(t, 2, w.Queue().Len())
	assert.Equal(t, 2, m.Preparing())
	assert.Equal(t, 0, w.Cache().Len())

	stepUntil(t, w, func() bool { return w.Queue().Len() == 0 })
	assert.Equal(t, map[common.EntityID]interface{}{1: "asset-1"}, built)
	assert.Equal(t, 0, m.Preparing())
	_, mapped := w.Cache().ResolveRef(identity.EntityRef(2))
	assert.T(t, !mapped)
}

func TestAsyncMaterializerForgetsRemoved(t *testing.T) {
	m := NewAsyncMaterializer("test_forget", func(ctx context.Context, id common.EntityID) (interface{}, error) {
		return nil, nil
	}, nil, nil)
	w, _ := newTestWorker(t, Options{Materializer: m})

	w.HandleOp(&proto.OpAddEntity{EntityID: 3})
	w.MaterializeStep(1)
	assert.Equal(t, 1, m.Preparing())
	w.HandleOp(&proto.OpRemoveEntity{EntityID: 3})
	assert.Equal(t, 0, m.Preparing())
	assert.Equal(t, 0, w.Queue().Len())
}
