package proximity

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/spatialgw/spatialworker/engine/common"
)

func TestTracker(t *testing.T) {
	tr := NewTracker(10)
	tr.Update(1, 0, 0)
	tr.SetPlayer(1, true)
	tr.Update(2, 5, 5)
	tr.Update(3, 500, 500)
	assert.Equal(t, 3, tr.Len())

	assert.T(t, tr.IsPlayer(1))
	assert.T(t, !tr.IsPlayer(2))
	assert.T(t, tr.IsNearPlayer(2))
	assert.T(t, !tr.IsNearPlayer(3))
	assert.Equal(t, []common.EntityID{2}, tr.Neighbors(1))
	assert.Equal(t, []common.EntityID{1}, tr.Neighbors(2))

	tr.Update(3, 3, -3)
	assert.T(t, tr.IsNearPlayer(3))
	tr.Update(3, 300, 0)
	assert.T(t, !tr.IsNearPlayer(3))

	tr.Remove(1)
	assert.T(t, !tr.Contains(1))
	assert.T(t, !tr.IsNearPlayer(2))
	assert.Equal(t, 0, len(tr.Neighbors(2)))
	tr.Remove(1)

	assert.T(t, !tr.IsNearPlayer(99))
	assert.T(t, tr.Neighbors(99) == nil)
	tr.SetPlayer(99, true)
	assert.T(t, !tr.Contains(99))
}

func TestDefaultDistance(t *testing.T) {
	tr := NewTracker(0)
	tr.Update(1, 0, 0)
	tr.SetPlayer(1, true)
	tr.Update(2, DefaultDistance/2, 0)
	assert.T(t, tr.IsNearPlayer(2))
}
