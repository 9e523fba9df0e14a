package interest

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
)

// Updater sends the interest queries of an entity
type Updater interface {
	UpdateInterest(owner common.EntityID, queries []Query) error
}

// GlobalConstraintFunc returns the constraint added to every query of the component
type GlobalConstraintFunc func() Constraint

// Component holds the interest fragments of one owned entity.
//
// It only sends queries between OnActivate and OnDeactivate, and only when they changed.
type Component struct {
	owner     common.EntityID
	updater   Updater
	global    GlobalConstraintFunc
	fragments []Fragment
	active    bool
	sent      []Query
	hasSent   bool
}

// NewComponent creates an inactive component; global may be nil
func NewComponent(owner common.EntityID, updater Updater, global GlobalConstraintFunc) *Component {
	return &Component{
		owner:   owner,
		updater: updater,
		global:  global,
	}
}

// Owner returns the owning entity
func (c *Component) Owner() common.EntityID {
	return c.owner
}

// AddFragment appends a fragment; call Refresh to send the new queries
func (c *Component) AddFragment(f Fragment) {
	c.fragments = append(c.fragments, f)
}

// SetFragments replaces the fragments; call Refresh to send the new queries
func (c *Component) SetFragments(fragments []Fragment) {
	c.fragments = append(c.fragments[:0:0], fragments...)
}

// IsActive returns if the component sends queries
func (c *Component) IsActive() bool {
	return c.active
}

// CreateQueries builds the queries of the fragments with the global constraint
func (c *Component) CreateQueries(global Constraint) []Query {
	return BuildQueries(c.fragments, global)
}

// OnActivate starts sending queries. With reset the queries are sent even if unchanged.
func (c *Component) OnActivate(reset bool) error {
	c.active = true
	if reset {
		c.hasSent = false
		c.sent = nil
	}
	return c.Refresh()
}

// OnDeactivate stops sending queries and clears the interest of the owner
func (c *Component) OnDeactivate() error {
	if !c.active {
		return nil
	}
	c.active = false
	c.sent = nil
	c.hasSent = false
	return c.send(nil)
}

// Refresh sends the current queries if the component is active and they changed
func (c *Component) Refresh() error {
	if !c.active {
		return nil
	}
	var global Constraint
	if c.global != nil {
		global = c.global()
	}
	queries := c.CreateQueries(global)
	if c.hasSent && reflect.DeepEqual(queries, c.sent) {
		return nil
	}
	if err := c.send(queries); err != nil {
		return err
	}
	c.sent = queries
	c.hasSent = true
	return nil
}

func (c *Component) send(queries []Query) error {
	if c.updater == nil {
		return nil
	}
	return errors.Wrapf(c.updater.UpdateInterest(c.owner, queries), "update interest of %s", c.owner)
}
