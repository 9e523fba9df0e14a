package proto

import (
	"reflect"

	"github.com/spatialgw/spatialworker/engine/gwutils"
	"github.com/xiaonanln/typeconv"
)

var float64Type = reflect.TypeOf(float64(0))

// Position returns the x and z coordinates carried by the update
func (op *OpComponentUpdate) Position() (x, z float64, ok bool) {
	var okx, okz bool
	x, okx = op.floatAttr(ATTR_X)
	z, okz = op.floatAttr(ATTR_Z)
	return x, z, okx && okz
}

// IsPlayer returns the player flag carried by the update
func (op *OpComponentUpdate) IsPlayer() (player bool, ok bool) {
	v, has := op.Attrs[ATTR_PLAYER]
	if !has || v == nil {
		return false, false
	}
	if b, isBool := v.(bool); isBool {
		return b, true
	}
	var n int64
	if err := gwutils.CatchPanic(func() { n = typeconv.Int(v) }); err != nil {
		return false, false
	}
	return n != 0, true
}

func (op *OpComponentUpdate) floatAttr(key string) (float64, bool) {
	v, has := op.Attrs[key]
	if !has || v == nil {
		return 0, false
	}
	var f float64
	if err := gwutils.CatchPanic(func() { f = typeconv.Convert(v, float64Type).Float() }); err != nil {
		return 0, false
	}
	return f, true
}
