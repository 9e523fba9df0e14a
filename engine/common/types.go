package common

import (
	"strconv"

	"github.com/pkg/errors"
)

// EntityID is the globally-stable identifier of an entity
//
// EntityIDs are granted by the deployment's entity id authority and are never reused while the
// entity is alive. Zero and negative values are invalid.
type EntityID int64

// InvalidEntityID is the invalid sentinel
const InvalidEntityID EntityID = 0

// IsValid returns if EntityID is a valid granted id
func (id EntityID) IsValid() bool {
	return id > 0
}

func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseEntityID parses the decimal form of an entity ID
func ParseEntityID(s string) (EntityID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return InvalidEntityID, errors.Wrapf(err, "parse entity id %q", s)
	}
	id := EntityID(v)
	if !id.IsValid() {
		return InvalidEntityID, errors.Errorf("entity id %d is not valid", v)
	}
	return id, nil
}

// WorkerID identifies a worker process inside the deployment
type WorkerID string

// IsNil returns if WorkerID is nil
func (id WorkerID) IsNil() bool {
	return id == ""
}
