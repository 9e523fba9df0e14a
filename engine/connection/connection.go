// Package connection defines how a worker exchanges ops and messages with the deployment.
//
// The deployment transport itself is not part of this module: MockHandler drives a worker from
// op lists given per tick, ReplayHandler from a recording written by RecordingHandler.
package connection

import (
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/proto"
)

// Handler is the connection of a worker to the deployment.
//
// Advance moves the handler to the next tick; the op lists of that tick are then read with
// GetOpListCount and GetNextOpList.
type Handler interface {
	Advance()
	GetOpListCount() int
	GetNextOpList() *proto.OpList
	SendMessages(msgs []proto.Message) error
	GetWorkerID() common.WorkerID
	GetWorkerAttributes() []string
	Close() error
}
