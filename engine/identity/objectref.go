package identity

import "github.com/spatialgw/spatialworker/engine/common"

// ObjectRef is the globally stable address of an object: an entity root, a named
// sub-object of an entity, or a stably named object (Entity == 0, Path set)
type ObjectRef struct {
	Entity common.EntityID
	Path   string
}

// EntityRef returns the root object reference of the entity
func EntityRef(id common.EntityID) ObjectRef {
	return ObjectRef{Entity: id}
}

// StablyNamedRef returns the reference of a stably named object
func StablyNamedRef(path string) ObjectRef {
	return ObjectRef{Path: path}
}

// IsValid returns false for the empty reference and for negative entity ids
func (ref ObjectRef) IsValid() bool {
	if ref.Entity == common.InvalidEntityID {
		return ref.Path != ""
	}
	return ref.Entity.IsValid()
}

// IsStablyNamed returns if the reference addresses an object by path only
func (ref ObjectRef) IsStablyNamed() bool {
	return ref.Entity == common.InvalidEntityID && ref.Path != ""
}

// IsRoot returns if the reference addresses an entity root object
func (ref ObjectRef) IsRoot() bool {
	return ref.Entity.IsValid() && ref.Path == ""
}

func (ref ObjectRef) String() string {
	if ref.Entity == common.InvalidEntityID {
		if ref.Path == "" {
			return "ObjectRef<nil>"
		}
		return ref.Path
	}
	return FormatEntityPath(ref)
}
