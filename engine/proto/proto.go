// Package proto defines the ops a worker receives from the deployment and the messages it sends back.
package proto

import (
	"fmt"

	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/interest"
)

// MsgType is the type of ops and messages
type MsgType uint16

const (
	// MT_INVALID is the invalid message type
	MT_INVALID MsgType = iota
	// MT_ADD_ENTITY is an op for an entity entering the worker's view
	MT_ADD_ENTITY
	// MT_REMOVE_ENTITY is an op for an entity leaving the worker's view
	MT_REMOVE_ENTITY
	// MT_AUTHORITY_CHANGE is an op for the worker gaining or losing authority over an entity
	MT_AUTHORITY_CHANGE
	// MT_COMPONENT_UPDATE is an op carrying changed component attributes
	MT_COMPONENT_UPDATE
	// MT_CREATE_ENTITY_RESPONSE is an op answering a create entity request
	MT_CREATE_ENTITY_RESPONSE
)

const (
	// MT_CREATE_ENTITY_REQUEST is sent by the worker to create an entity with a reserved id
	MT_CREATE_ENTITY_REQUEST MsgType = 1000 + iota
	// MT_INTEREST_UPDATE is sent by the worker to replace the interest queries of an entity
	MT_INTEREST_UPDATE
)

var msgTypeNames = map[MsgType]string{
	MT_INVALID:                "INVALID",
	MT_ADD_ENTITY:             "ADD_ENTITY",
	MT_REMOVE_ENTITY:          "REMOVE_ENTITY",
	MT_AUTHORITY_CHANGE:       "AUTHORITY_CHANGE",
	MT_COMPONENT_UPDATE:       "COMPONENT_UPDATE",
	MT_CREATE_ENTITY_RESPONSE: "CREATE_ENTITY_RESPONSE",
	MT_CREATE_ENTITY_REQUEST:  "CREATE_ENTITY_REQUEST",
	MT_INTEREST_UPDATE:        "INTEREST_UPDATE",
}

func (mt MsgType) String() string {
	if name, ok := msgTypeNames[mt]; ok {
		return name
	}
	return fmt.Sprintf("MsgType<%d>", uint16(mt))
}

// Attribute keys of component updates understood by the worker
const (
	ATTR_X      = "x"
	ATTR_Z      = "z"
	ATTR_PLAYER = "player"
)

// Op is an inbound op about one entity
type Op interface {
	MsgType() MsgType
	Entity() common.EntityID
}

// OpAddEntity notifies that an entity entered the view of the worker
type OpAddEntity struct {
	EntityID common.EntityID
}

// OpRemoveEntity notifies that an entity left the view of the worker
type OpRemoveEntity struct {
	EntityID common.EntityID
}

// OpAuthorityChange notifies that the worker gained or lost authority over an entity
type OpAuthorityChange struct {
	EntityID      common.EntityID
	Authoritative bool
}

// OpComponentUpdate carries changed attributes of an entity
type OpComponentUpdate struct {
	EntityID common.EntityID
	Attrs    map[string]interface{}
}

// OpCreateEntityResponse answers a create entity request of the worker
type OpCreateEntityResponse struct {
	EntityID common.EntityID
	Success  bool
	Message  string
}

func (op *OpAddEntity) MsgType() MsgType { return MT_ADD_ENTITY }
func (op *OpRemoveEntity) MsgType() MsgType { return MT_REMOVE_ENTITY }
func (op *OpAuthorityChange) MsgType() MsgType { return MT_AUTHORITY_CHANGE }
func (op *OpComponentUpdate) MsgType() MsgType { return MT_COMPONENT_UPDATE }
func (op *OpCreateEntityResponse) MsgType() MsgType { return MT_CREATE_ENTITY_RESPONSE }

func (op *OpAddEntity) Entity() common.EntityID { return op.EntityID }
func (op *OpRemoveEntity) Entity() common.EntityID { return op.EntityID }
func (op *OpAuthorityChange) Entity() common.EntityID { return op.EntityID }
func (op *OpComponentUpdate) Entity() common.EntityID { return op.EntityID }
func (op *OpCreateEntityResponse) Entity() common.EntityID { return op.EntityID }

// OpList is the batch of ops delivered at one tick
type OpList struct {
	Tick uint64
	Ops  []Op
}

// Len returns the number of ops
func (ol *OpList) Len() int {
	return len(ol.Ops)
}

// Message is an outbound message of the worker
type Message interface {
	MsgType() MsgType
}

// CreateEntityRequest asks the deployment to create an entity with a reserved id
type CreateEntityRequest struct {
	EntityID common.EntityID `msgpack:"e"`
	Path     string          `msgpack:"p,omitempty"`
}

// InterestUpdate replaces the interest queries of an entity; no queries clears its interest
type InterestUpdate struct {
	EntityID common.EntityID  `msgpack:"e"`
	Queries  []interest.Query `msgpack:"q"`
}

func (m *CreateEntityRequest) MsgType() MsgType { return MT_CREATE_ENTITY_REQUEST }
func (m *InterestUpdate) MsgType() MsgType { return MT_INTEREST_UPDATE }
