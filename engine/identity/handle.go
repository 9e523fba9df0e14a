package identity

import "fmt"

// LocalHandle is the process-local token of a materialized object.
//
// Layout: bits 0..30 slot index, bit 31 static flag, bits 32..63 generation.
// Generations start at 1, so a minted handle is never zero.
type LocalHandle uint64

// InvalidHandle is the zero handle
const InvalidHandle LocalHandle = 0

const (
	handleIndexBits  = 31
	handleIndexMask  = 1<<handleIndexBits - 1
	handleStaticFlag = 1 << handleIndexBits
	handleGenShift   = 32
	maxHandleIndex   = handleIndexMask
)

func makeHandle(index uint32, generation uint32, static bool) LocalHandle {
	h := LocalHandle(index&handleIndexMask) | LocalHandle(generation)<<handleGenShift
	if static {
		h |= handleStaticFlag
	}
	return h
}

// Index returns the slot index of the handle
func (h LocalHandle) Index() uint32 {
	return uint32(h & handleIndexMask)
}

// Generation returns the slot generation the handle was minted with
func (h LocalHandle) Generation() uint32 {
	return uint32(h >> handleGenShift)
}

// IsStatic returns if the handle addresses a stably named object
func (h LocalHandle) IsStatic() bool {
	return h&handleStaticFlag != 0
}

// IsValid returns false for the zero handle and for handles without generation
func (h LocalHandle) IsValid() bool {
	return h.Generation() != 0
}

func (h LocalHandle) String() string {
	if !h.IsValid() {
		return "Handle<invalid>"
	}
	if h.IsStatic() {
		return fmt.Sprintf("Handle<S%d.%d>", h.Index(), h.Generation())
	}
	return fmt.Sprintf("Handle<%d.%d>", h.Index(), h.Generation())
}

// handleAllocator mints generational handles; a retired slot is reused with a bumped generation
type handleAllocator struct {
	generations []uint32
	free        []uint32
}

func (ha *handleAllocator) mint(static bool) LocalHandle {
	var index uint32
	if n := len(ha.free); n > 0 {
		index = ha.free[n-1]
		ha.free = ha.free[:n-1]
	} else {
		if len(ha.generations) > maxHandleIndex {
			return InvalidHandle
		}
		index = uint32(len(ha.generations))
		ha.generations = append(ha.generations, 1)
	}
	return makeHandle(index, ha.generations[index], static)
}

// retire bumps the slot generation so h never resolves again; returns false for foreign or stale handles
func (ha *handleAllocator) retire(h LocalHandle) bool {
	index := h.Index()
	if int(index) >= len(ha.generations) || ha.generations[index] != h.Generation() {
		return false
	}
	gen := ha.generations[index] + 1
	if gen == 0 {
		gen = 1
	}
	ha.generations[index] = gen
	ha.free = append(ha.free, index)
	return true
}

// isCurrent returns if h carries the live generation of its slot
func (ha *handleAllocator) isCurrent(h LocalHandle) bool {
	index := h.Index()
	return int(index) < len(ha.generations) && ha.generations[index] == h.Generation()
}

func (ha *handleAllocator) reset() {
	for i := range ha.generations {
		gen := ha.generations[i] + 1
		if gen == 0 {
			gen = 1
		}
		ha.generations[i] = gen
	}
	ha.free = ha.free[:0]
	for i := len(ha.generations) - 1; i >= 0; i-- {
		ha.free = append(ha.free, uint32(i))
	}
}
