// Package allocator reserves new entity ids from the deployment authority and tracks
// the ids this worker has reserved but not yet seen created.
package allocator

import (
	"github.com/kamstrup/intmap"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/identity"
)

var (
	// ErrAllocationExhausted is the cause of errors when the authority cannot grant an id
	ErrAllocationExhausted = errors.New("entity id allocation exhausted")
	// ErrInvalidGrant is returned when the authority grants an invalid or already pending id
	ErrInvalidGrant = errors.New("invalid entity id grant")
	// ErrUnexpectedConfirmation is returned when a creation is confirmed for an id that is not pending
	ErrUnexpectedConfirmation = errors.New("unexpected creation confirmation")
)

// Authority grants globally unique entity ids. It is the only source of ids.
type Authority interface {
	ReserveEntityID() (common.EntityID, error)
}

// AuthorityFunc adapts a function to Authority
type AuthorityFunc func() (common.EntityID, error)

// ReserveEntityID calls f
func (f AuthorityFunc) ReserveEntityID() (common.EntityID, error) {
	return f()
}

// Allocator owns the pending creation set of a worker session.
// An id leaves the set exactly once, by confirmation or cancellation.
type Allocator struct {
	authority Authority
	cache     *identity.Cache
	pending   *intmap.Set[common.EntityID]
}

// New creates an Allocator; cache may be nil when AllocateAndResolve is not used
func New(authority Authority, cache *identity.Cache) *Allocator {
	return &Allocator{
		authority: authority,
		cache:     cache,
		pending:   intmap.NewSet[common.EntityID](64),
	}
}

// AllocateEntityID reserves a new id from the authority and marks it pending. It never retries.
func (a *Allocator) AllocateEntityID() (common.EntityID, error) {
	id, err := a.authority.ReserveEntityID()
	if err != nil {
		return common.InvalidEntityID, errors.Wrapf(ErrAllocationExhausted, "%v", err)
	}
	if !id.IsValid() {
		return common.InvalidEntityID, errors.Wrapf(ErrInvalidGrant, "authority granted %s", id)
	}
	if !a.pending.Add(id) {
		return common.InvalidEntityID, errors.Wrapf(ErrInvalidGrant, "authority granted pending id %s", id)
	}
	return id, nil
}

// AllocateAndResolve allocates an id and registers the object at path of the new entity
// ("" for the root) with a fresh local handle. The id is cancelled if registration fails.
func (a *Allocator) AllocateAndResolve(path string) (common.EntityID, identity.LocalHandle, error) {
	id, err := a.AllocateEntityID()
	if err != nil {
		return common.InvalidEntityID, identity.InvalidHandle, err
	}
	h, err := a.cache.AssignLocalObject(identity.ObjectRef{Entity: id, Path: path})
	if err != nil {
		a.Cancel(id)
		return common.InvalidEntityID, identity.InvalidHandle, errors.Wrapf(err, "resolve new entity %s", id)
	}
	return id, h, nil
}

// ConfirmCreated removes a pending id whose creation has been observed
func (a *Allocator) ConfirmCreated(id common.EntityID) error {
	if !a.pending.Del(id) {
		gwlog.Warnf("allocator: creation of %s confirmed but it is not pending", id)
		return errors.Wrapf(ErrUnexpectedConfirmation, "entity %s", id)
	}
	return nil
}

// Cancel removes a pending id without confirmation, returning whether it was pending
func (a *Allocator) Cancel(id common.EntityID) bool {
	return a.pending.Del(id)
}

// IsPending returns if the id is reserved and not yet confirmed
func (a *Allocator) IsPending(id common.EntityID) bool {
	return a.pending.Has(id)
}

// PendingCount returns the size of the pending creation set
func (a *Allocator) PendingCount() int {
	return a.pending.Len()
}

// Pending returns the pending ids in ascending order
func (a *Allocator) Pending() []common.EntityID {
	ids := make([]common.EntityID, 0, a.pending.Len())
	a.pending.ForEach(func(id common.EntityID) bool {
		ids = append(ids, id)
		return true
	})
	common.SortEntityIDs(ids)
	return ids
}

// CancelAll abandons every pending reservation, returning how many were abandoned
func (a *Allocator) CancelAll() int {
	ids := a.Pending()
	for _, id := range ids {
		gwlog.Warnf("allocator: abandon pending entity %s", id)
	}
	a.pending.Clear()
	return len(ids)
}
