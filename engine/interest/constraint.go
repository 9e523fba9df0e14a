// Package interest composes the interest queries a worker sends for the entities it owns.
// Constraints are opaque to this package apart from their validity and conjunction.
package interest

import (
	"fmt"
	"strings"

	"github.com/spatialgw/spatialworker/engine/common"
)

// Coordinates is a world position
type Coordinates struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
	Z float64 `msgpack:"z"`
}

// SphereConstraint matches entities within Radius of Center
type SphereConstraint struct {
	Center Coordinates `msgpack:"center"`
	Radius float64     `msgpack:"radius"`
}

// BoxConstraint matches entities within the box of EdgeLength around Center
type BoxConstraint struct {
	Center     Coordinates `msgpack:"center"`
	EdgeLength Coordinates `msgpack:"edge"`
}

// Constraint is a node of the query constraint tree. A constraint with nothing set is invalid.
type Constraint struct {
	Sphere         *SphereConstraint `msgpack:"sphere,omitempty"`
	Box            *BoxConstraint    `msgpack:"box,omitempty"`
	RelativeSphere float64           `msgpack:"rel_sphere,omitempty"` // radius around the querying entity
	EntityID       common.EntityID   `msgpack:"entity,omitempty"`
	Component      uint32            `msgpack:"component,omitempty"`
	And            []Constraint      `msgpack:"and,omitempty"`
	Or             []Constraint      `msgpack:"or,omitempty"`
}

// And returns the conjunction of the constraints
func And(cs ...Constraint) Constraint {
	return Constraint{And: cs}
}

// Or returns the disjunction of the constraints
func Or(cs ...Constraint) Constraint {
	return Constraint{Or: cs}
}

// IsValid returns if any part of the constraint is set
func (c Constraint) IsValid() bool {
	return c.Sphere != nil || c.Box != nil || c.RelativeSphere > 0 || c.EntityID.IsValid() ||
		c.Component != 0 || len(c.And) > 0 || len(c.Or) > 0
}

func (c Constraint) String() string {
	var parts []string
	if c.Sphere != nil {
		parts = append(parts, fmt.Sprintf("sphere(%v,%v,%v r=%v)", c.Sphere.Center.X, c.Sphere.Center.Y, c.Sphere.Center.Z, c.Sphere.Radius))
	}
	if c.Box != nil {
		parts = append(parts, fmt.Sprintf("box(%v,%v,%v)", c.Box.Center.X, c.Box.Center.Y, c.Box.Center.Z))
	}
	if c.RelativeSphere > 0 {
		parts = append(parts, fmt.Sprintf("relsphere(%v)", c.RelativeSphere))
	}
	if c.EntityID.IsValid() {
		parts = append(parts, "entity("+c.EntityID.String()+")")
	}
	if c.Component != 0 {
		parts = append(parts, fmt.Sprintf("component(%d)", c.Component))
	}
	if len(c.And) > 0 {
		parts = append(parts, join(c.And, " AND "))
	}
	if len(c.Or) > 0 {
		parts = append(parts, join(c.Or, " OR "))
	}
	if len(parts) == 0 {
		return "<none>"
	}
	return strings.Join(parts, " ")
}

func join(cs []Constraint, sep string) string {
	strs := make([]string, len(cs))
	for i, c := range cs {
		strs[i] = c.String()
	}
	return "(" + strings.Join(strs, sep) + ")"
}
