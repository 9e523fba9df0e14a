package idpooltypes

import "github.com/spatialgw/spatialworker/engine/common"

// IDPoolBackend is the storage of the deployment wide entity id counter
type IDPoolBackend interface {
	// ReserveBlock atomically reserves count consecutive ids and returns the first one
	ReserveBlock(count int) (common.EntityID, error)
	// IsEOF returns if err means the backend connection is broken
	IsEOF(err error) bool
	Close()
}
