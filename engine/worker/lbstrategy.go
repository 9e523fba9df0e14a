package worker

import "github.com/spatialgw/spatialworker/engine/common"

// VirtualWorkerID is the load balancing identity of a worker
type VirtualWorkerID uint32

// InvalidVirtualWorkerID is returned while no translator knows the worker
const InvalidVirtualWorkerID VirtualWorkerID = 0

// VirtualWorkerTranslator maps workers to their virtual worker ids
type VirtualWorkerTranslator interface {
	VirtualWorkerIDOf(workerID common.WorkerID) (VirtualWorkerID, bool)
}

// VirtualWorkerMap is a static VirtualWorkerTranslator
type VirtualWorkerMap map[common.WorkerID]VirtualWorkerID

// VirtualWorkerIDOf returns the virtual worker id mapped for the worker
func (m VirtualWorkerMap) VirtualWorkerIDOf(workerID common.WorkerID) (VirtualWorkerID, bool) {
	id, ok := m[workerID]
	return id, ok
}

// LBStrategy provides the local virtual worker id to the load balancing policy
type LBStrategy struct {
	workerID   common.WorkerID
	translator VirtualWorkerTranslator
}

// NewLBStrategy creates an LBStrategy without translator
func NewLBStrategy(workerID common.WorkerID) *LBStrategy {
	return &LBStrategy{workerID: workerID}
}

// SetTranslator installs the translator; nil uninstalls it
func (s *LBStrategy) SetTranslator(t VirtualWorkerTranslator) {
	s.translator = t
}

// LocalVirtualWorkerID returns the virtual worker id of this worker, or InvalidVirtualWorkerID
func (s *LBStrategy) LocalVirtualWorkerID() VirtualWorkerID {
	if s.translator == nil {
		return InvalidVirtualWorkerID
	}
	id, ok := s.translator.VirtualWorkerIDOf(s.workerID)
	if !ok {
		return InvalidVirtualWorkerID
	}
	return id
}
