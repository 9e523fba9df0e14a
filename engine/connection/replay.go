package connection

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/netutil"
	"github.com/spatialgw/spatialworker/engine/proto"
)

// ReplayHandler presents the op lists of a recording at the ticks they were recorded at
type ReplayHandler struct {
	workerID    common.WorkerID
	reader      netutil.MsgReader
	closer      io.Closer
	currentTick uint64
	next        *proto.OpList
	ready       []*proto.OpList
	finished    bool
	sentCount   int
}

// NewReplayHandler creates a ReplayHandler reading the recording from r
func NewReplayHandler(r io.Reader, workerID common.WorkerID) *ReplayHandler {
	h := &ReplayHandler{
		workerID: workerID,
		reader:   netutil.MSG_PACKER.NewStreamReader(r),
	}
	if c, ok := r.(io.Closer); ok {
		h.closer = c
	}
	return h
}

// OpenReplayFile creates a ReplayHandler reading the recording file
func OpenReplayFile(path string, workerID common.WorkerID) (*ReplayHandler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open replay file")
	}
	return NewReplayHandler(f, workerID), nil
}

// Advance moves to the next tick and makes the op lists recorded up to it readable
func (h *ReplayHandler) Advance() {
	h.currentTick++
	for {
		if h.next == nil && !h.finished {
			h.readNext()
		}
		if h.next == nil || h.next.Tick > h.currentTick {
			return
		}
		h.ready = append(h.ready, h.next)
		h.next = nil
	}
}

func (h *ReplayHandler) readNext() {
	ol, err := proto.ReadOpList(h.reader)
	if err == io.EOF {
		h.finished = true
		return
	} else if err != nil {
		gwlog.Errorf("replay: stop reading recording at tick %d: %v", h.currentTick, err)
		h.finished = true
		return
	}
	h.next = ol
}

// IsFinished returns if every op list of the recording was read
func (h *ReplayHandler) IsFinished() bool {
	return h.finished && h.next == nil && len(h.ready) == 0
}

// GetOpListCount returns the number of unread op lists
func (h *ReplayHandler) GetOpListCount() int {
	return len(h.ready)
}

// GetNextOpList returns the next unread op list, or nil
func (h *ReplayHandler) GetNextOpList() *proto.OpList {
	if len(h.ready) == 0 {
		return nil
	}
	ol := h.ready[0]
	h.ready[0] = nil
	h.ready = h.ready[1:]
	return ol
}

// SendMessages drops the messages; there is no deployment to receive them
func (h *ReplayHandler) SendMessages(msgs []proto.Message) error {
	h.sentCount += len(msgs)
	if consts.DEBUG_OPS {
		for _, msg := range msgs {
			gwlog.Debugf("replay: drop message %s", msg.MsgType())
		}
	}
	return nil
}

// SentCount returns the number of messages dropped by SendMessages
func (h *ReplayHandler) SentCount() int {
	return h.sentCount
}

// GetWorkerID returns the worker id given at creation
func (h *ReplayHandler) GetWorkerID() common.WorkerID {
	return h.workerID
}

// GetWorkerAttributes returns no attributes
func (h *ReplayHandler) GetWorkerAttributes() []string {
	return nil
}

// Close closes the recording
func (h *ReplayHandler) Close() error {
	h.finished = true
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

// RecordingHandler writes every op list read from the wrapped handler to a recording
type RecordingHandler struct {
	Handler
	writer netutil.MsgWriter
	tick   uint64
}

// NewRecordingHandler wraps h, writing its op lists to w
func NewRecordingHandler(h Handler, w io.Writer) *RecordingHandler {
	return &RecordingHandler{
		Handler: h,
		writer:  netutil.MSG_PACKER.NewStreamWriter(w),
	}
}

// Advance advances the wrapped handler
func (h *RecordingHandler) Advance() {
	h.tick++
	h.Handler.Advance()
}

// GetNextOpList reads the next op list of the wrapped handler and records it at the current tick
func (h *RecordingHandler) GetNextOpList() *proto.OpList {
	ol := h.Handler.GetNextOpList()
	if ol == nil {
		return nil
	}
	recorded := &proto.OpList{Tick: h.tick, Ops: ol.Ops}
	if err := proto.WriteOpList(h.writer, recorded); err != nil {
		gwlog.Errorf("record op list: %v", err)
	}
	return ol
}
