package connection

import (
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/proto"
)

// MockHandler presents given op lists after a given number of calls to Advance
type MockHandler struct {
	workerID    common.WorkerID
	attributes  []string
	currentTick int64
	opsAtTick   map[int64][]*proto.OpList
	sent        []proto.Message
	closed      bool
}

// NewMockHandler creates a MockHandler at tick 0
func NewMockHandler(workerID common.WorkerID, attributes ...string) *MockHandler {
	return &MockHandler{
		workerID:   workerID,
		attributes: attributes,
		opsAtTick:  map[int64][]*proto.OpList{},
	}
}

// AddOpListAtTick presents the op list once the handler reaches tick
func (h *MockHandler) AddOpListAtTick(ol *proto.OpList, tick int64) {
	ol.Tick = uint64(tick)
	h.opsAtTick[tick] = append(h.opsAtTick[tick], ol)
}

// AddOpListNextTick presents the op list after the next Advance
func (h *MockHandler) AddOpListNextTick(ol *proto.OpList) {
	h.AddOpListAtTick(ol, h.currentTick+1)
}

// AddOpsNextTick presents the ops as one op list after the next Advance
func (h *MockHandler) AddOpsNextTick(ops ...proto.Op) {
	h.AddOpListNextTick(&proto.OpList{Ops: ops})
}

// GetCurrentTick returns the number of calls to Advance
func (h *MockHandler) GetCurrentTick() int64 {
	return h.currentTick
}

// Advance moves to the next tick, dropping unread op lists of the current one
func (h *MockHandler) Advance() {
	delete(h.opsAtTick, h.currentTick)
	h.currentTick++
}

// GetOpListCount returns the number of unread op lists of the current tick
func (h *MockHandler) GetOpListCount() int {
	return len(h.opsAtTick[h.currentTick])
}

// GetNextOpList returns the next unread op list of the current tick, or nil
func (h *MockHandler) GetNextOpList() *proto.OpList {
	lists := h.opsAtTick[h.currentTick]
	if len(lists) == 0 {
		return nil
	}
	ol := lists[0]
	lists[0] = nil
	h.opsAtTick[h.currentTick] = lists[1:]
	return ol
}

// SendMessages keeps the messages for inspection
func (h *MockHandler) SendMessages(msgs []proto.Message) error {
	h.sent = append(h.sent, msgs...)
	return nil
}

// Sent returns all messages sent so far
func (h *MockHandler) Sent() []proto.Message {
	return h.sent
}

// ClearSent forgets the messages sent so far
func (h *MockHandler) ClearSent() {
	h.sent = nil
}

// GetWorkerID returns the worker id given at creation
func (h *MockHandler) GetWorkerID() common.WorkerID {
	return h.workerID
}

// GetWorkerAttributes returns the attributes given at creation
func (h *MockHandler) GetWorkerAttributes() []string {
	return h.attributes
}

// Close marks the handler closed
func (h *MockHandler) Close() error {
	h.closed = true
	return nil
}

// IsClosed returns if Close was called
func (h *MockHandler) IsClosed() bool {
	return h.closed
}
