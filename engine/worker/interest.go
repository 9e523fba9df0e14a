package worker

import (
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/interest"
	"github.com/spatialgw/spatialworker/engine/proto"
)

// UpdateInterest queues an interest update for the entity; it is sent at the end of the tick
func (w *Worker) UpdateInterest(owner common.EntityID, queries []interest.Query) error {
	if !w.IsConnected() {
		return ErrNotConnected
	}
	w.send(&proto.InterestUpdate{EntityID: owner, Queries: queries})
	return nil
}

// NewFragment returns a fragment of the source with the configured frequency and snapshot mode
func (w *Worker) NewFragment(source interest.ConstraintSource) interest.Fragment {
	return interest.Fragment{
		Source:             source,
		Frequency:          w.options.InterestFrequency,
		FullSnapshotResult: w.options.FullSnapshot,
	}
}

// Interest returns the interest component of the entity, creating it on first use.
// The component is active while the worker has authority over the entity.
func (w *Worker) Interest(owner common.EntityID) *interest.Component {
	if c := w.interests[owner]; c != nil {
		return c
	}
	c := interest.NewComponent(owner, w, w.options.GlobalConstraint)
	w.interests[owner] = c
	return c
}

func (w *Worker) refreshInterests() {
	if len(w.interests) == 0 {
		return
	}
	ids := make([]common.EntityID, 0, len(w.interests))
	for id := range w.interests {
		ids = append(ids, id)
	}
	common.SortEntityIDs(ids)
	for _, id := range ids {
		c := w.interests[id]
		if c.IsActive() != w.authoritative.Contains(id) {
			if c.IsActive() {
				w.logInterestError(c.OnDeactivate())
			} else {
				w.logInterestError(c.OnActivate(false))
			}
			continue
		}
		w.logInterestError(c.Refresh())
	}
}

func (w *Worker) logInterestError(err error) {
	if err != nil {
		gwlog.Errorf("%s: %v", w, err)
	}
}
