// Package gwvar publishes worker state through expvar (served at /debug/vars by the binary)
package gwvar

import "expvar"

// Bool is a published boolean variable
type Bool struct {
	val *expvar.Int
}

// NewBool publishes a new boolean variable
func NewBool(name string) *Bool {
	return &Bool{
		val: expvar.NewInt(name),
	}
}

func (b *Bool) Value() bool {
	return b.val.Value() > 0
}

func (b *Bool) Set(v bool) {
	if v {
		b.val.Set(1)
	} else {
		b.val.Set(0)
	}
}

// Int is a published integer gauge
type Int struct {
	val *expvar.Int
}

// NewInt publishes a new integer variable
func NewInt(name string) *Int {
	return &Int{val: expvar.NewInt(name)}
}

func (i *Int) Value() int64 {
	return i.val.Value()
}

func (i *Int) Set(v int) {
	i.val.Set(int64(v))
}

func (i *Int) Add(delta int) {
	i.val.Add(int64(delta))
}

var (
	// IsConnected is true while the worker session is connected
	IsConnected = NewBool("IsConnected")
	// PendingEntityIDs is the size of the pending creation set
	PendingEntityIDs = NewInt("PendingEntityIDs")
	// SpawnQueueHigh is the length of the high priority spawn queue
	SpawnQueueHigh = NewInt("SpawnQueueHigh")
	// SpawnQueueLow is the length of the low priority spawn queue
	SpawnQueueLow = NewInt("SpawnQueueLow")
	// CachedObjects is the number of identity cache entries
	CachedObjects = NewInt("CachedObjects")
	// MaterializedEntities counts successful materializations
	MaterializedEntities = NewInt("MaterializedEntities")
)
