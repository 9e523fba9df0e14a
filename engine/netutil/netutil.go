package netutil

import (
	"os"
	"reflect"

	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
)

// ServeForever runs the function with arguments forever
//
// ServeForever will restart the function call if function panics.
// If the function returns a true bool as its first result, ServeForever quits.
func ServeForever(f interface{}, args ...interface{}) {
	fval := reflect.ValueOf(f)
	argscount := len(args)
	argVals := make([]reflect.Value, argscount)
	for i := 0; i < argscount; i++ {
		argVals[i] = reflect.ValueOf(args[i])
	}

	for {
		if runServe(fval, argVals) {
			return
		}
		if consts.DEBUG_MODE { // we just quit in debug mode
			os.Exit(2)
		}
	}
}

func runServe(f reflect.Value, args []reflect.Value) (quit bool) {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("ServeForever: func %v quited with error %v", f, err)
		}
	}()

	rets := f.Call(args)
	gwlog.Debugf("ServeForever: func %v returns %v", f, rets)
	if len(rets) > 0 && rets[0].Kind() == reflect.Bool {
		return rets[0].Bool()
	}
	return false
}
