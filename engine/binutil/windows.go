//go:build windows
// +build windows

package binutil

import "github.com/spatialgw/spatialworker/engine/gwlog"

type nopRelease int

func (_ nopRelease) Release() {

}

// Daemonize forks the worker into background, the parent exits
func Daemonize() nopRelease {
	// Windows can not daemonize
	gwlog.Warnf("can not run in daemon mode in windows, -d ignored")
	return nopRelease(0)
}
