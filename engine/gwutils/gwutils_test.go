package gwutils

import (
	"fmt"
	"testing"

	"github.com/bmizerany/assert"
)

func TestRunPanicless(t *testing.T) {
	assert.T(t, RunPanicless(func() {
		panic(1)
	}))
	assert.T(t, RunPanicless(func() {
		panic(fmt.Errorf("bad"))
	}))
	assert.T(t, !RunPanicless(func() {}))
}

func TestCatchPanic(t *testing.T) {
	err := CatchPanic(func() {
		panic("boom")
	})
	assert.NotEqual(t, nil, err)
	assert.Equal(t, "panic: boom", err.Error())
	assert.Equal(t, nil, CatchPanic(func() {}))
}

func TestRepeatUntilPanicless(t *testing.T) {
	n := 0
	RepeatUntilPanicless(func() {
		n++
		if n < 3 {
			panic(n)
		}
	})
	assert.Equal(t, 3, n)
}
