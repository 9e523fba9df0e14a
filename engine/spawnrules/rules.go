package spawnrules

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/arbitration"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/proximity"
)

// Rule kinds
const (
	KindAlways     = "always"
	KindNearPlayer = "near_player"
	KindPlayer     = "player"
	KindIDRange    = "id_range"
	KindResolved   = "resolved"
)

// Rule is one predicate of the rule table
type Rule struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Priority string `toml:"priority"` // high or low
	Front    bool   `toml:"front"`    // insert in front of the tier instead of the end
	Min      int64  `toml:"min"`      // id_range
	Max      int64  `toml:"max"`      // id_range
}

// Table is the ordered rule table of a worker
type Table struct {
	Rules []Rule `toml:"rule"`
}

// DefaultTable places everything at the end of the High tier
func DefaultTable() *Table {
	return &Table{Rules: []Rule{{Name: "default", Kind: KindAlways, Priority: "high"}}}
}

// LoadRules reads a rule table from a TOML file
func LoadRules(path string) (*Table, error) {
	var table Table
	if _, err := toml.DecodeFile(path, &table); err != nil {
		return nil, errors.Wrapf(err, "parse spawn rules %s", path)
	}
	if err := table.Validate(); err != nil {
		return nil, errors.Wrapf(err, "spawn rules %s", path)
	}
	return &table, nil
}

// ParseRules reads a rule table from TOML content
func ParseRules(data string) (*Table, error) {
	var table Table
	if _, err := toml.Decode(data, &table); err != nil {
		return nil, errors.Wrap(err, "parse spawn rules")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Validate checks every rule of the table
func (t *Table) Validate() error {
	for i := range t.Rules {
		r := &t.Rules[i]
		if r.Name == "" {
			r.Name = r.Kind
		}
		if _, err := parsePriority(r.Priority); err != nil {
			return errors.Wrapf(err, "rule %d (%s)", i, r.Name)
		}
		switch r.Kind {
		case KindAlways, KindNearPlayer, KindPlayer, KindResolved:
		case KindIDRange:
			if r.Min > r.Max {
				return errors.Errorf("rule %d (%s): min %d > max %d", i, r.Name, r.Min, r.Max)
			}
		default:
			return errors.Errorf("rule %d (%s): unknown kind %q", i, r.Name, r.Kind)
		}
	}
	return nil
}

// Install pushes the rules to the back of the chain in table order
func (t *Table) Install(chain *arbitration.Chain, tracker *proximity.Tracker) ([]arbitration.Handle, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	handles := make([]arbitration.Handle, 0, len(t.Rules))
	for _, r := range t.Rules {
		pred, err := r.predicate(tracker)
		if err != nil {
			for _, h := range handles {
				chain.Remove(h)
			}
			return nil, err
		}
		handles = append(handles, chain.PushBack(r.Name, pred))
	}
	gwlog.Infof("spawnrules: installed %d rules: %v", len(handles), chain.Names())
	return handles, nil
}

func (r Rule) predicate(tracker *proximity.Tracker) (arbitration.Predicate, error) {
	priority, err := parsePriority(r.Priority)
	if err != nil {
		return nil, err
	}
	switch r.Kind {
	case KindAlways:
		return Always(priority, r.Front), nil
	case KindIDRange:
		return IDRange(r.Min, r.Max, priority, r.Front), nil
	case KindResolved:
		return Resolved(priority, r.Front), nil
	case KindNearPlayer, KindPlayer:
		if tracker == nil {
			return nil, errors.Errorf("rule %s needs a proximity tracker", r.Name)
		}
		if r.Kind == KindPlayer {
			return Player(tracker, priority, r.Front), nil
		}
		return NearPlayer(tracker, priority, r.Front), nil
	}
	return nil, errors.Errorf("unknown rule kind %q", r.Kind)
}

func parsePriority(s string) (arbitration.Priority, error) {
	switch strings.ToLower(s) {
	case "high":
		return arbitration.High, nil
	case "low":
		return arbitration.Low, nil
	}
	return arbitration.Undecided, errors.Errorf("invalid priority %q", s)
}
