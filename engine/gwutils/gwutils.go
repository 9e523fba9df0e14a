package gwutils

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/gwlog"
)

// RunPanicless calls a function panic-freely
func RunPanicless(f func()) (paniced bool) {
	return CatchPanic(f) != nil
}

// CatchPanic calls f and converts a panic into an error, logging the trace once
func CatchPanic(f func()) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			gwlog.TraceError("%p panic: %v", f, r)
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "panic")
			} else {
				err = errors.New(fmt.Sprintf("panic: %v", r))
			}
		}
	}()

	f()
	return
}

// RepeatUntilPanicless runs the function repeatly until there is no panic
func RepeatUntilPanicless(f func()) {
	for RunPanicless(f) {
	}
}
