package identity

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidHandle is returned when registering the invalid handle
	ErrInvalidHandle = errors.New("invalid local handle")
	// ErrInvalidRef is returned when registering an empty or invalid object reference
	ErrInvalidRef = errors.New("invalid object reference")
	// ErrStablyNamed is returned when a stably named object goes through a dynamic allocation path
	ErrStablyNamed = errors.New("object is stably named")
	// ErrHandlesExhausted is returned when no more slot indexes are available
	ErrHandlesExhausted = errors.New("local handles exhausted")
)

// ConflictError is returned when either side of a registration is already mapped to a different counterpart
type ConflictError struct {
	Handle LocalHandle
	Ref    ObjectRef
	// MappedRef is the reference Handle is currently mapped to, if any
	MappedRef ObjectRef
	// MappedHandle is the handle Ref is currently mapped to, if any
	MappedHandle LocalHandle
}

func (e *ConflictError) Error() string {
	s := fmt.Sprintf("identity conflict registering %s <-> %s", e.Handle, e.Ref)
	if e.MappedRef.IsValid() {
		s += fmt.Sprintf(": handle already mapped to %s", e.MappedRef)
	}
	if e.MappedHandle.IsValid() {
		s += fmt.Sprintf(": ref already mapped to %s", e.MappedHandle)
	}
	return s
}

// IsConflict returns if the cause of err is a *ConflictError
func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}
