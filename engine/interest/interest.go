package interest

import (
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
)

// ConstraintSource produces the constraint of a fragment
type ConstraintSource interface {
	CreateConstraint() Constraint
}

// ConstraintFunc adapts a function to ConstraintSource
type ConstraintFunc func() Constraint

// CreateConstraint calls f
func (f ConstraintFunc) CreateConstraint() Constraint {
	return f()
}

// StaticConstraint is a source that always produces the same constraint
type StaticConstraint Constraint

// CreateConstraint returns the constraint
func (c StaticConstraint) CreateConstraint() Constraint {
	return Constraint(c)
}

// Fragment is one query description of an entity
type Fragment struct {
	Source             ConstraintSource
	Frequency          float64
	FullSnapshotResult bool
}

// Query is a constraint with its delivery settings
type Query struct {
	Constraint         Constraint `msgpack:"constraint"`
	Frequency          float64    `msgpack:"frequency"`
	FullSnapshotResult bool       `msgpack:"full_snapshot"`
}

// BuildQueries turns the fragments into queries. A valid global constraint is AND-ed to
// every fragment constraint; otherwise the fragment constraint is used alone. Fragments
// without source or producing an invalid constraint are skipped.
func BuildQueries(fragments []Fragment, global Constraint) []Query {
	var queries []Query
	for _, f := range fragments {
		if f.Source == nil {
			continue
		}
		own := f.Source.CreateConstraint()
		if !own.IsValid() {
			if consts.DEBUG_INTEREST {
				gwlog.Debugf("interest: fragment produced an invalid constraint, skipped")
			}
			continue
		}
		q := Query{
			Constraint:         own,
			Frequency:          f.Frequency,
			FullSnapshotResult: f.FullSnapshotResult,
		}
		if global.IsValid() {
			q.Constraint = And(own, global)
		}
		queries = append(queries, q)
	}
	return queries
}
