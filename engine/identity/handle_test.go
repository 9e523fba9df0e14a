package identity

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestHandleLayout(t *testing.T) {
	h := makeHandle(5, 3, true)
	assert.Equal(t, uint32(5), h.Index())
	assert.Equal(t, uint32(3), h.Generation())
	assert.T(t, h.IsStatic())
	assert.T(t, h.IsValid())
	assert.Equal(t, "Handle<S5.3>", h.String())

	h = makeHandle(maxHandleIndex, 0xffffffff, false)
	assert.Equal(t, uint32(maxHandleIndex), h.Index())
	assert.Equal(t, uint32(0xffffffff), h.Generation())
	assert.T(t, !h.IsStatic())

	assert.T(t, !InvalidHandle.IsValid())
	assert.Equal(t, "Handle<invalid>", InvalidHandle.String())
}

func TestHandleAllocatorReuse(t *testing.T) {
	var ha handleAllocator
	h1 := ha.mint(false)
	h2 := ha.mint(false)
	assert.T(t, h1 != h2)
	assert.Equal(t, uint32(1), h1.Generation())

	assert.T(t, ha.retire(h1))
	assert.T(t, !ha.retire(h1), "double retire")
	assert.T(t, !ha.isCurrent(h1))

	h3 := ha.mint(false)
	assert.Equal(t, h1.Index(), h3.Index())
	assert.Equal(t, uint32(2), h3.Generation())
	assert.T(t, h3 != h1)
	assert.T(t, ha.isCurrent(h3))

	foreign := makeHandle(1000, 1, false)
	assert.T(t, !ha.retire(foreign))
	assert.T(t, !ha.isCurrent(foreign))

	ha.reset()
	assert.T(t, !ha.isCurrent(h2))
	assert.T(t, !ha.isCurrent(h3))
}
