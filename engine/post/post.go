package post

import (
	"sync"

	"github.com/spatialgw/spatialworker/engine/gwutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

var (
	callbacks []PostCallback
	lock      sync.Mutex
)

// Post a callback which will be executed on the worker simulation routine at the next Tick
//
// Post might be called from other goroutines (id reservation, async jobs), so the queue is locked
func Post(f PostCallback) {
	lock.Lock()
	callbacks = append(callbacks, f)
	lock.Unlock()
}

// Len returns the number of callbacks waiting for the next Tick
func Len() int {
	lock.Lock()
	n := len(callbacks)
	lock.Unlock()
	return n
}

// Tick is called by the simulation routine to run all posted functions
func Tick() {
	for { // callbacks may post more callbacks
		lock.Lock()
		if len(callbacks) == 0 {
			lock.Unlock()
			break
		}
		callbacksCopy := callbacks
		callbacks = make([]PostCallback, 0, len(callbacks))
		lock.Unlock()

		for _, f := range callbacksCopy {
			gwutils.RunPanicless(f)
		}
	}
}
