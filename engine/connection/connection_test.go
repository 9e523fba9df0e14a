package connection

import (
	"bytes"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/proto"
)

var _ Handler = (*MockHandler)(nil)
var _ Handler = (*ReplayHandler)(nil)
var _ Handler = (*RecordingHandler)(nil)

func TestMockHandlerTicks(t *testing.T) {
	h := NewMockHandler("worker-1", "physics")
	assert.Equal(t, common.WorkerID("worker-1"), h.GetWorkerID())
	assert.Equal(t, []string{"physics"}, h.GetWorkerAttributes())

	h.AddOpsNextTick(&proto.OpAddEntity{EntityID: 1})
	h.AddOpListAtTick(&proto.OpList{Ops: []proto.Op{&proto.OpAddEntity{EntityID: 2}}}, 3)
	h.AddOpListAtTick(&proto.OpList{Ops: []proto.Op{&proto.OpRemoveEntity{EntityID: 2}}}, 3)
	assert.Equal(t, 0, h.GetOpListCount())
	assert.Equal(t, (*proto.OpList)(nil), h.GetNextOpList())

	h.Advance()
	assert.Equal(t, int64(1), h.GetCurrentTick())
	assert.Equal(t, 1, h.GetOpListCount())
	ol := h.GetNextOpList()
	assert.Equal(t, uint64(1), ol.Tick)
	assert.Equal(t, common.EntityID(1), ol.Ops[0].Entity())
	assert.Equal(t, 0, h.GetOpListCount())

	h.Advance()
	assert.Equal(t, 0, h.GetOpListCount())
	h.Advance()
	assert.Equal(t, 2, h.GetOpListCount())
	assert.Equal(t, proto.MT_ADD_ENTITY, h.GetNextOpList().Ops[0].MsgType())
	assert.Equal(t, proto.MT_REMOVE_ENTITY, h.GetNextOpList().Ops[0].MsgType())

	assert.Equal(t, nil, h.SendMessages([]proto.Message{&proto.CreateEntityRequest{EntityID: 4}}))
	assert.Equal(t, 1, len(h.Sent()))
	h.ClearSent()
	assert.Equal(t, 0, len(h.Sent()))

	assert.Equal(t, nil, h.Close())
	assert.T(t, h.IsClosed())
}

func TestMockHandlerDropsUnreadLists(t *testing.T) {
	h := NewMockHandler("w")
	h.AddOpsNextTick(&proto.OpAddEntity{EntityID: 1})
	h.Advance()
	h.Advance()
	assert.Equal(t, 0, h.GetOpListCount())
}

func TestRecordAndReplay(t *testing.T) {
	mock := NewMockHandler("w")
	var recording bytes.Buffer
	rec := NewRecordingHandler(mock, &recording)

	mock.AddOpsNextTick(&proto.OpAddEntity{EntityID: 1})
	mock.AddOpListAtTick(&proto.OpList{Ops: []proto.Op{&proto.OpAuthorityChange{EntityID: 1, Authoritative: true}}}, 3)
	mock.AddOpListAtTick(&proto.OpList{Ops: []proto.Op{&proto.OpRemoveEntity{EntityID: 1}}}, 3)
	for i := 0; i < 3; i++ {
		rec.Advance()
		for rec.GetOpListCount() > 0 {
			rec.GetNextOpList()
		}
	}

	replay := NewReplayHandler(&recording, "replayer")
	assert.T(t, !replay.IsFinished())
	replay.Advance()
	assert.Equal(t, 1, replay.GetOpListCount())
	assert.Equal(t, proto.MT_ADD_ENTITY, replay.GetNextOpList().Ops[0].MsgType())

	replay.Advance()
	assert.Equal(t, 0, replay.GetOpListCount())

	replay.Advance()
	assert.Equal(t, 2, replay.GetOpListCount())
	assert.Equal(t, &proto.OpAuthorityChange{EntityID: 1, Authoritative: true}, replay.GetNextOpList().Ops[0])
	assert.Equal(t, proto.MT_REMOVE_ENTITY, replay.GetNextOpList().Ops[0].MsgType())

	replay.Advance()
	assert.T(t, replay.IsFinished())
	assert.Equal(t, (*proto.OpList)(nil), replay.GetNextOpList())

	assert.Equal(t, nil, replay.SendMessages([]proto.Message{&proto.InterestUpdate{EntityID: 1}}))
	assert.Equal(t, 1, replay.SentCount())
	assert.Equal(t, nil, replay.Close())
}

func TestOpenReplayFileMissing(t *testing.T) {
	_, err := OpenReplayFile("does-not-exist.rec", "w")
	assert.NotEqual(t, nil, err)
}
