package proto

import (
	"bytes"
	"io"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/netutil"
)

func sampleOpList() *OpList {
	return &OpList{
		Tick: 3,
		Ops: []Op{
			&OpAddEntity{EntityID: 5},
			&OpAuthorityChange{EntityID: 5, Authoritative: true},
			&OpComponentUpdate{EntityID: 5, Attrs: map[string]interface{}{"x": 1.5, "z": -2.0, "player": true}},
			&OpCreateEntityResponse{EntityID: 7, Success: false, Message: "denied"},
			&OpRemoveEntity{EntityID: 5},
		},
	}
}

func TestMsgTypeString(t *testing.T) {
	assert.Equal(t, "ADD_ENTITY", MT_ADD_ENTITY.String())
	assert.Equal(t, "INTEREST_UPDATE", MT_INTEREST_UPDATE.String())
	assert.Equal(t, "MsgType<77>", MsgType(77).String())
}

func TestPackUnpackOpList(t *testing.T) {
	data, err := PackOpList(sampleOpList(), nil)
	assert.Equal(t, nil, err)

	ol, err := UnpackOpList(data)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint64(3), ol.Tick)
	assert.Equal(t, 5, ol.Len())
	assert.Equal(t, &OpAddEntity{EntityID: 5}, ol.Ops[0])
	assert.Equal(t, &OpAuthorityChange{EntityID: 5, Authoritative: true}, ol.Ops[1])
	assert.Equal(t, &OpCreateEntityResponse{EntityID: 7, Message: "denied"}, ol.Ops[3])
	assert.Equal(t, MT_REMOVE_ENTITY, ol.Ops[4].MsgType())
	assert.Equal(t, common.EntityID(5), ol.Ops[4].Entity())

	update := ol.Ops[2].(*OpComponentUpdate)
	x, z, ok := update.Position()
	assert.T(t, ok)
	assert.Equal(t, 1.5, x)
	assert.Equal(t, -2.0, z)
	player, ok := update.IsPlayer()
	assert.T(t, ok && player)
}

func TestUnpackUnknownOp(t *testing.T) {
	data, err := netutil.MSG_PACKER.PackMsg(&opListRecord{Tick: 1, Ops: []opRecord{{Type: MT_INTEREST_UPDATE, Entity: 1}}}, nil)
	assert.Equal(t, nil, err)
	_, err = UnpackOpList(data)
	assert.NotEqual(t, nil, err)
}

func TestOpListStream(t *testing.T) {
	var buf bytes.Buffer
	w := netutil.MSG_PACKER.NewStreamWriter(&buf)
	for tick := uint64(1); tick <= 3; tick++ {
		assert.Equal(t, nil, WriteOpList(w, &OpList{Tick: tick, Ops: []Op{&OpAddEntity{EntityID: common.EntityID(tick)}}}))
	}

	r := netutil.MSG_PACKER.NewStreamReader(&buf)
	for tick := uint64(1); tick <= 3; tick++ {
		ol, err := ReadOpList(r)
		assert.Equal(t, nil, err)
		assert.Equal(t, tick, ol.Tick)
		assert.Equal(t, common.EntityID(tick), ol.Ops[0].Entity())
	}
	_, err := ReadOpList(r)
	assert.Equal(t, io.EOF, err)
}

func TestComponentUpdateAttrs(t *testing.T) {
	op := &OpComponentUpdate{EntityID: 1, Attrs: map[string]interface{}{"x": int64(3), "z": 4, "player": int64(0)}}
	x, z, ok := op.Position()
	assert.T(t, ok)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, z)
	player, ok := op.IsPlayer()
	assert.T(t, ok && !player)

	op = &OpComponentUpdate{EntityID: 1, Attrs: map[string]interface{}{"x": 1.0}}
	_, _, ok = op.Position()
	assert.T(t, !ok)
	_, ok = op.IsPlayer()
	assert.T(t, !ok)
}
