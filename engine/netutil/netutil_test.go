package netutil

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestServeForeverRestartsAfterPanic(t *testing.T) {
	calls := 0
	ServeForever(func(limit int) bool {
		calls++
		if calls < limit {
			panic("crash")
		}
		return true
	}, 3)
	assert.Equal(t, 3, calls)
}
