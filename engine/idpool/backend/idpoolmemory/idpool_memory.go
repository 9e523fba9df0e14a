package idpoolmemory

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
)

// MemoryBackend reserves ids from an in-process counter; ids are unique only within the process
type MemoryBackend struct {
	sync.Mutex
	last int64
}

// OpenMemoryBackend creates a memory backend whose first granted id is last+1
func OpenMemoryBackend(last int64) *MemoryBackend {
	return &MemoryBackend{last: last}
}

// ReserveBlock reserves count consecutive ids and returns the first one
func (b *MemoryBackend) ReserveBlock(count int) (common.EntityID, error) {
	if count <= 0 {
		return common.InvalidEntityID, errors.Errorf("invalid reserve count: %d", count)
	}
	b.Lock()
	first := b.last + 1
	b.last += int64(count)
	b.Unlock()
	return common.EntityID(first), nil
}

func (b *MemoryBackend) IsEOF(err error) bool {
	return false
}

func (b *MemoryBackend) Close() {}
