package proto

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/netutil"
)

// opRecord is the recorded form of an op
type opRecord struct {
	Type    MsgType                `msgpack:"t"`
	Entity  common.EntityID        `msgpack:"e"`
	Flag    bool                   `msgpack:"f,omitempty"`
	Attrs   map[string]interface{} `msgpack:"a,omitempty"`
	Message string                 `msgpack:"m,omitempty"`
}

type opListRecord struct {
	Tick uint64     `msgpack:"tick"`
	Ops  []opRecord `msgpack:"ops"`
}

func newOpRecord(op Op) opRecord {
	r := opRecord{Type: op.MsgType(), Entity: op.Entity()}
	switch o := op.(type) {
	case *OpAuthorityChange:
		r.Flag = o.Authoritative
	case *OpComponentUpdate:
		r.Attrs = o.Attrs
	case *OpCreateEntityResponse:
		r.Flag = o.Success
		r.Message = o.Message
	}
	return r
}

func (r *opRecord) toOp() (Op, error) {
	switch r.Type {
	case MT_ADD_ENTITY:
		return &OpAddEntity{EntityID: r.Entity}, nil
	case MT_REMOVE_ENTITY:
		return &OpRemoveEntity{EntityID: r.Entity}, nil
	case MT_AUTHORITY_CHANGE:
		return &OpAuthorityChange{EntityID: r.Entity, Authoritative: r.Flag}, nil
	case MT_COMPONENT_UPDATE:
		return &OpComponentUpdate{EntityID: r.Entity, Attrs: r.Attrs}, nil
	case MT_CREATE_ENTITY_RESPONSE:
		return &OpCreateEntityResponse{EntityID: r.Entity, Success: r.Flag, Message: r.Message}, nil
	default:
		return nil, errors.Errorf("unknown op type %s", r.Type)
	}
}

func newOpListRecord(ol *OpList) *opListRecord {
	rec := &opListRecord{Tick: ol.Tick, Ops: make([]opRecord, len(ol.Ops))}
	for i, op := range ol.Ops {
		rec.Ops[i] = newOpRecord(op)
	}
	return rec
}

func (rec *opListRecord) toOpList() (*OpList, error) {
	ol := &OpList{Tick: rec.Tick, Ops: make([]Op, 0, len(rec.Ops))}
	for i := range rec.Ops {
		op, err := rec.Ops[i].toOp()
		if err != nil {
			return nil, errors.Wrapf(err, "op list of tick %d", rec.Tick)
		}
		ol.Ops = append(ol.Ops, op)
	}
	return ol, nil
}

// PackOpList packs the op list using netutil.MSG_PACKER
func PackOpList(ol *OpList, buf []byte) ([]byte, error) {
	return netutil.MSG_PACKER.PackMsg(newOpListRecord(ol), buf)
}

// UnpackOpList unpacks an op list packed by PackOpList
func UnpackOpList(data []byte) (*OpList, error) {
	var rec opListRecord
	if err := netutil.MSG_PACKER.UnpackMsg(data, &rec); err != nil {
		return nil, errors.Wrap(err, "unpack op list")
	}
	return rec.toOpList()
}

// WriteOpList appends the op list to a recording
func WriteOpList(w netutil.MsgWriter, ol *OpList) error {
	return errors.Wrapf(w.WriteMsg(newOpListRecord(ol)), "write op list of tick %d", ol.Tick)
}

// ReadOpList reads the next op list of a recording. The end of the recording is reported as io.EOF, unwrapped.
func ReadOpList(r netutil.MsgReader) (*OpList, error) {
	var rec opListRecord
	if err := r.ReadMsg(&rec); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errors.Wrap(err, "read op list")
	}
	return rec.toOpList()
}
