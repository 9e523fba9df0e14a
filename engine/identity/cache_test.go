package identity

import (
	"math/rand"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
)

func mustHandle(t *testing.T, c *Cache) LocalHandle {
	h, err := c.NewHandle(false)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestRegisterResolve(t *testing.T) {
	c := NewCache("")
	h := mustHandle(t, c)
	ref := EntityRef(7)

	assert.Equal(t, nil, c.Register(h, ref))
	got, ok := c.ResolveHandle(h)
	assert.T(t, ok)
	assert.Equal(t, ref, got)
	gotH, ok := c.ResolveRef(ref)
	assert.T(t, ok)
	assert.Equal(t, h, gotH)
	assert.Equal(t, 1, c.Len())

	// identical pair is a no-op
	assert.Equal(t, nil, c.Register(h, ref))
	assert.Equal(t, 1, c.Len())

	_, ok = c.ResolveRef(EntityRef(8))
	assert.T(t, !ok)
}

func TestRegisterConflict(t *testing.T) {
	c := NewCache("")
	h1 := mustHandle(t, c)
	assert.Equal(t, nil, c.Register(h1, ObjectRef{Entity: 7}))

	err := c.Register(h1, ObjectRef{Entity: 8})
	assert.T(t, IsConflict(err))
	conflict := errors.Cause(err).(*ConflictError)
	assert.Equal(t, ObjectRef{Entity: 7}, conflict.MappedRef)
	assert.T(t, !conflict.MappedHandle.IsValid())

	ref, ok := c.ResolveHandle(h1)
	assert.T(t, ok)
	assert.Equal(t, ObjectRef{Entity: 7}, ref)
	_, ok = c.ResolveRef(ObjectRef{Entity: 8})
	assert.T(t, !ok)

	// the other direction conflicts too
	h2 := mustHandle(t, c)
	err = c.Register(h2, ObjectRef{Entity: 7})
	assert.T(t, IsConflict(err))
	assert.Equal(t, h1, errors.Cause(err).(*ConflictError).MappedHandle)
	_, ok = c.ResolveHandle(h2)
	assert.T(t, !ok)
	assert.Equal(t, 1, c.Len())
}

func TestRegisterInvalid(t *testing.T) {
	c := NewCache("")
	assert.Equal(t, ErrInvalidHandle, errors.Cause(c.Register(InvalidHandle, EntityRef(1))))
	h := mustHandle(t, c)
	assert.Equal(t, ErrInvalidRef, errors.Cause(c.Register(h, ObjectRef{})))
	assert.Equal(t, ErrInvalidRef, errors.Cause(c.Register(h, EntityRef(-3))))
	assert.Equal(t, 0, c.Len())
}

func TestUnregister(t *testing.T) {
	c := NewCache("")
	h := mustHandle(t, c)
	assert.Equal(t, nil, c.Register(h, EntityRef(3)))

	assert.T(t, c.UnregisterRef(EntityRef(3)))
	assert.T(t, !c.UnregisterRef(EntityRef(3)))
	_, ok := c.ResolveHandle(h)
	assert.T(t, !ok)
	assert.T(t, !c.IsCurrent(h))

	// a retired handle never comes back
	assert.Equal(t, ErrInvalidHandle, errors.Cause(c.Register(h, EntityRef(4))))

	h2 := mustHandle(t, c)
	assert.Equal(t, h.Index(), h2.Index())
	assert.T(t, h2 != h)
	assert.Equal(t, nil, c.Register(h2, EntityRef(4)))
	assert.T(t, c.UnregisterHandle(h2))
	assert.T(t, !c.UnregisterHandle(h2))
	_, ok = c.ResolveRef(EntityRef(4))
	assert.T(t, !ok)
	assert.Equal(t, 0, c.Len())
}

func TestRegisterForeignHandle(t *testing.T) {
	c := NewCache("")
	foreign := makeHandle(3, 1, false)
	assert.Equal(t, ErrInvalidHandle, errors.Cause(c.Register(foreign, EntityRef(9))))
	assert.Equal(t, 0, c.Len())

	// minting the same slot later is unaffected
	for i := 0; i < 4; i++ {
		h, err := c.AssignRemoteEntity(EntityRef(common.EntityID(i + 1)))
		assert.Equal(t, nil, err)
		assert.T(t, c.IsCurrent(h))
	}
	h, ok := c.ResolveRef(EntityRef(4))
	assert.T(t, ok)
	assert.Equal(t, foreign, h)
	_, ok = c.ResolveRef(EntityRef(9))
	assert.T(t, !ok)
}

func TestUnregisterEntity(t *testing.T) {
	c := NewCache("")
	for _, ref := range []ObjectRef{EntityRef(9), {Entity: 9, Path: "Weapon"}, {Entity: 9, Path: "Weapon/Scope"}, EntityRef(10)} {
		_, err := c.AssignRemoteEntity(ref)
		assert.Equal(t, nil, err)
	}
	assert.Equal(t, 3, c.UnregisterEntity(9))
	assert.Equal(t, 0, c.UnregisterEntity(9))
	assert.Equal(t, 1, c.Len())
	_, ok := c.ResolveRef(EntityRef(10))
	assert.T(t, ok)
}

func TestAssignPaths(t *testing.T) {
	c := NewCache("W1_")

	h, err := c.AssignLocalObject(EntityRef(5))
	assert.Equal(t, nil, err)
	assert.T(t, !h.IsStatic())
	_, err = c.AssignLocalObject(EntityRef(5))
	assert.T(t, IsConflict(err))
	_, err = c.AssignLocalObject(StablyNamedRef("/World/Door"))
	assert.Equal(t, ErrStablyNamed, errors.Cause(err))

	sh, err := c.AssignStablyNamed("/World//Door/")
	assert.Equal(t, nil, err)
	assert.T(t, sh.IsStatic())
	ref, _ := c.ResolveHandle(sh)
	assert.Equal(t, StablyNamedRef("/W1_World/Door"), ref)
	again, err := c.AssignStablyNamed("/W1_World/Door")
	assert.Equal(t, nil, err)
	assert.Equal(t, sh, again)

	rh, err := c.AssignRemoteEntity(ObjectRef{Entity: 6, Path: "Arm"})
	assert.Equal(t, nil, err)
	rh2, err := c.AssignRemoteEntity(ObjectRef{Entity: 6, Path: "Arm"})
	assert.Equal(t, nil, err)
	assert.Equal(t, rh, rh2)
	assert.Equal(t, 3, c.Len())

	_, err = c.AssignRemoteEntity(ObjectRef{})
	assert.Equal(t, ErrInvalidRef, errors.Cause(err))
}

func TestClear(t *testing.T) {
	c := NewCache("")
	h, _ := c.AssignLocalObject(EntityRef(1))
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.T(t, !c.IsCurrent(h))
	_, ok := c.ResolveHandle(h)
	assert.T(t, !ok)
}

func checkBijective(t *testing.T, c *Cache, model map[LocalHandle]ObjectRef) {
	assert.Equal(t, len(model), c.Len())
	seen := map[ObjectRef]bool{}
	c.ForEach(func(h LocalHandle, ref ObjectRef) bool {
		assert.Equal(t, model[h], ref)
		assert.T(t, !seen[ref], "ref mapped twice")
		seen[ref] = true
		back, ok := c.ResolveRef(ref)
		assert.T(t, ok)
		assert.Equal(t, h, back)
		return true
	})
	assert.Equal(t, len(model), len(seen))
}

func TestRandomizedBijectivity(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	c := NewCache("")
	model := map[LocalHandle]ObjectRef{}
	var live []LocalHandle

	for i := 0; i < 5000; i++ {
		switch rnd.Intn(4) {
		case 0, 1:
			ref := ObjectRef{Entity: common.EntityID(rnd.Intn(50) + 1)}
			if rnd.Intn(2) == 0 {
				ref.Path = "sub"
			}
			h := mustHandle(t, c)
			_, taken := c.ResolveRef(ref)
			err := c.Register(h, ref)
			if !taken {
				assert.Equal(t, nil, err)
				model[h] = ref
				live = append(live, h)
			} else {
				assert.T(t, IsConflict(err))
				c.ReleaseHandle(h)
			}
		case 2:
			if len(live) > 0 {
				j := rnd.Intn(len(live))
				assert.T(t, c.UnregisterHandle(live[j]))
				delete(model, live[j])
				live = append(live[:j], live[j+1:]...)
			}
		case 3:
			if len(live) > 0 {
				// conflicting re-registration must not change anything
				h := live[rnd.Intn(len(live))]
				err := c.Register(h, ObjectRef{Entity: 1000})
				assert.T(t, IsConflict(err))
			}
		}
		if i%250 == 0 {
			checkBijective(t, c, model)
		}
	}
	checkBijective(t, c, model)
}
