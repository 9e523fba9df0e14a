package idpoolmemory

import (
	"sync"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/spatialgw/spatialworker/engine/common"
)

func TestReserveBlock(t *testing.T) {
	b := OpenMemoryBackend(0)
	first, err := b.ReserveBlock(10)
	assert.Equal(t, nil, err)
	assert.Equal(t, common.EntityID(1), first)
	first, err = b.ReserveBlock(5)
	assert.Equal(t, nil, err)
	assert.Equal(t, common.EntityID(11), first)

	_, err = b.ReserveBlock(0)
	assert.NotEqual(t, nil, err)
}

func TestReserveBlockConcurrent(t *testing.T) {
	b := OpenMemoryBackend(100)
	var wait sync.WaitGroup
	var lock sync.Mutex
	firsts := map[common.EntityID]bool{}
	for i := 0; i < 20; i++ {
		wait.Add(1)
		go func() {
			defer wait.Done()
			first, _ := b.ReserveBlock(3)
			lock.Lock()
			firsts[first] = true
			lock.Unlock()
		}()
	}
	wait.Wait()
	assert.Equal(t, 20, len(firsts))
	for first := range firsts {
		assert.T(t, first > 100 && (first-101)%3 == 0)
	}
}
