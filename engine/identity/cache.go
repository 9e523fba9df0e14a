package identity

import (
	"github.com/kamstrup/intmap"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
)

const initialCacheCapacity = 1024

// Resolver looks up objects in both directions without mutating the cache
type Resolver interface {
	ResolveHandle(h LocalHandle) (ObjectRef, bool)
	ResolveRef(ref ObjectRef) (LocalHandle, bool)
}

// Cache is the bidirectional mapping between local handles and object references.
//
// Every entry is installed and removed in both directions together, so the mapping is
// injective both ways at all times. Cache is not goroutine-safe: it is owned by the
// worker simulation routine.
type Cache struct {
	pathPrefix string
	handles    handleAllocator
	byHandle   *intmap.Map[LocalHandle, ObjectRef]
	byRef      map[ObjectRef]LocalHandle
	// sub-object paths registered per entity, root included as ""
	byEntity map[common.EntityID]common.StringSet
}

// NewCache creates an empty cache; pathPrefix is the instance prefix of stably named paths
func NewCache(pathPrefix string) *Cache {
	return &Cache{
		pathPrefix: pathPrefix,
		byHandle:   intmap.New[LocalHandle, ObjectRef](initialCacheCapacity),
		byRef:      make(map[ObjectRef]LocalHandle, initialCacheCapacity),
		byEntity:   map[common.EntityID]common.StringSet{},
	}
}

// PathPrefix returns the instance prefix of stably named paths
func (c *Cache) PathPrefix() string {
	return c.pathPrefix
}

// ResolveHandle returns the object reference registered for the handle
func (c *Cache) ResolveHandle(h LocalHandle) (ObjectRef, bool) {
	return c.byHandle.Get(h)
}

// ResolveRef returns the handle registered for the object reference
func (c *Cache) ResolveRef(ref ObjectRef) (LocalHandle, bool) {
	h, ok := c.byRef[ref]
	return h, ok
}

// Len returns the number of entries
func (c *Cache) Len() int {
	return len(c.byRef)
}

// ForEach visits every entry while f returns true. f must not mutate the cache.
func (c *Cache) ForEach(f func(h LocalHandle, ref ObjectRef) bool) {
	c.byHandle.ForEach(f)
}

// NewHandle mints a handle without registering it; pass it to Register or ReleaseHandle
func (c *Cache) NewHandle(static bool) (LocalHandle, error) {
	h := c.handles.mint(static)
	if !h.IsValid() {
		return InvalidHandle, ErrHandlesExhausted
	}
	return h, nil
}

// ReleaseHandle retires a minted handle that was never registered
func (c *Cache) ReleaseHandle(h LocalHandle) {
	if _, ok := c.byHandle.Get(h); ok {
		gwlog.Warnf("identity: release of registered handle %s ignored", h)
		return
	}
	c.handles.retire(h)
}

// Register installs the pair in both directions.
//
// Registering an identical existing pair is a no-op. If either side is already mapped to a
// different counterpart the cache is left unchanged and the error cause is a *ConflictError.
func (c *Cache) Register(h LocalHandle, ref ObjectRef) error {
	if !h.IsValid() {
		return errors.Wrapf(ErrInvalidHandle, "register %s", ref)
	}
	if !c.handles.isCurrent(h) {
		// retired, or never minted by this cache
		return errors.Wrapf(ErrInvalidHandle, "register stale %s", h)
	}
	if !ref.IsValid() {
		return errors.Wrapf(ErrInvalidRef, "register %s", h)
	}

	mappedRef, handleMapped := c.byHandle.Get(h)
	mappedHandle, refMapped := c.byRef[ref]
	if handleMapped && refMapped && mappedRef == ref && mappedHandle == h {
		return nil
	}
	if handleMapped || refMapped {
		err := &ConflictError{Handle: h, Ref: ref}
		if handleMapped {
			err.MappedRef = mappedRef
		}
		if refMapped {
			err.MappedHandle = mappedHandle
		}
		gwlog.Errorf("identity: %s", err)
		return errors.WithStack(err)
	}

	c.byHandle.Put(h, ref)
	c.byRef[ref] = h
	if ref.Entity.IsValid() {
		paths := c.byEntity[ref.Entity]
		if paths == nil {
			paths = common.StringSet{}
			c.byEntity[ref.Entity] = paths
		}
		paths.Add(ref.Path)
	}
	if consts.DEBUG_IDENTITY {
		gwlog.Debugf("identity: registered %s <-> %s", h, ref)
	}
	return nil
}

// UnregisterRef removes the entry of the reference in both directions; no-op if absent
func (c *Cache) UnregisterRef(ref ObjectRef) bool {
	h, ok := c.byRef[ref]
	if !ok {
		return false
	}
	c.remove(h, ref)
	return true
}

// UnregisterHandle removes the entry of the handle in both directions; no-op if absent
func (c *Cache) UnregisterHandle(h LocalHandle) bool {
	ref, ok := c.byHandle.Get(h)
	if !ok {
		return false
	}
	c.remove(h, ref)
	return true
}

// UnregisterEntity removes the root and every sub-object of the entity, returning the number of entries removed
func (c *Cache) UnregisterEntity(id common.EntityID) int {
	paths := c.byEntity[id]
	if len(paths) == 0 {
		return 0
	}
	n := 0
	for _, p := range paths.ToList() {
		if c.UnregisterRef(ObjectRef{Entity: id, Path: p}) {
			n++
		}
	}
	return n
}

func (c *Cache) remove(h LocalHandle, ref ObjectRef) {
	c.byHandle.Del(h)
	delete(c.byRef, ref)
	if paths := c.byEntity[ref.Entity]; paths != nil {
		paths.Remove(ref.Path)
		if len(paths) == 0 {
			delete(c.byEntity, ref.Entity)
		}
	}
	c.handles.retire(h)
	if consts.DEBUG_IDENTITY {
		gwlog.Debugf("identity: unregistered %s <-> %s", h, ref)
	}
}

// Clear drops every entry and retires every handle, used at session teardown
func (c *Cache) Clear() {
	c.byHandle.Clear()
	c.byRef = make(map[ObjectRef]LocalHandle, initialCacheCapacity)
	c.byEntity = map[common.EntityID]common.StringSet{}
	c.handles.reset()
}

// AssignLocalObject mints a dynamic handle for an object this worker instantiates
func (c *Cache) AssignLocalObject(ref ObjectRef) (LocalHandle, error) {
	if ref.IsStablyNamed() {
		return InvalidHandle, errors.Wrapf(ErrStablyNamed, "assign local object %s", ref)
	}
	return c.mintAndRegister(ref, false)
}

// AssignStablyNamed resolves a remote stably named object, minting a static handle on first use.
// It never allocates an entity id.
func (c *Cache) AssignStablyNamed(path string) (LocalHandle, error) {
	ref := c.RemapOnRead(StablyNamedRef(path), true)
	if !ref.IsStablyNamed() {
		return InvalidHandle, errors.Wrapf(ErrInvalidRef, "assign stably named %q", path)
	}
	if h, ok := c.byRef[ref]; ok {
		return h, nil
	}
	return c.mintAndRegister(ref, true)
}

// AssignRemoteEntity resolves a materialized remote entity or sub-object, minting a handle on first use
func (c *Cache) AssignRemoteEntity(ref ObjectRef) (LocalHandle, error) {
	if ref.IsStablyNamed() {
		return InvalidHandle, errors.Wrapf(ErrStablyNamed, "assign remote entity %s", ref)
	}
	if h, ok := c.byRef[ref]; ok {
		return h, nil
	}
	return c.mintAndRegister(ref, false)
}

func (c *Cache) mintAndRegister(ref ObjectRef, static bool) (LocalHandle, error) {
	if !ref.IsValid() {
		return InvalidHandle, errors.Wrapf(ErrInvalidRef, "assign %s", ref)
	}
	h, err := c.NewHandle(static)
	if err != nil {
		return InvalidHandle, err
	}
	if err := c.Register(h, ref); err != nil {
		c.handles.retire(h)
		return InvalidHandle, err
	}
	return h, nil
}

// IsCurrent returns if the handle still carries the live generation of its slot
func (c *Cache) IsCurrent(h LocalHandle) bool {
	return c.handles.isCurrent(h)
}
