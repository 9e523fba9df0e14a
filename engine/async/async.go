package async

import (
	"sync"

	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/netutil"
	"github.com/spatialgw/spatialworker/engine/post"
	"golang.org/x/net/context"
)

const (
	asyncJobQueueMaxLen = 1000
)

var (
	asyncRunning, asyncCancelRunning = context.WithCancel(context.Background())
	numAsyncJobWorkersRunning        sync.WaitGroup
)

// AsyncCallback receives the result of an AsyncRoutine on the simulation routine
type AsyncCallback func(res interface{}, err error)

// Callback posts the callback to the simulation routine
func (ac AsyncCallback) Callback(res interface{}, err error) {
	if ac != nil {
		post.Post(func() {
			ac(res, err)
		})
	}
}

// AsyncRoutine runs in a job worker goroutine; ctx is cancelled on Shutdown
type AsyncRoutine func(ctx context.Context) (res interface{}, err error)

type asyncJobWorker struct {
	group    string
	jobQueue chan asyncJobItem
}

type asyncJobItem struct {
	routine  AsyncRoutine
	callback AsyncCallback
}

func newAsyncJobWorker(group string) *asyncJobWorker {
	ajw := &asyncJobWorker{
		group:    group,
		jobQueue: make(chan asyncJobItem, asyncJobQueueMaxLen),
	}
	numAsyncJobWorkersRunning.Add(1)
	go func() {
		netutil.ServeForever(ajw.loop)
		numAsyncJobWorkersRunning.Done()
	}()
	return ajw
}

func (ajw *asyncJobWorker) appendJob(routine AsyncRoutine, callback AsyncCallback) {
	ajw.jobQueue <- asyncJobItem{routine, callback}
}

// loop returns true when the job queue is closed so that ServeForever quits
func (ajw *asyncJobWorker) loop() bool {
	for item := range ajw.jobQueue {
		if asyncRunning.Err() != nil {
			item.callback.Callback(nil, asyncRunning.Err())
			continue
		}
		res, err := item.routine(asyncRunning)
		item.callback.Callback(res, err)
	}
	gwlog.Debugf("async: job worker %s quit", ajw.group)
	return true
}

var (
	asyncJobWorkersLock sync.RWMutex
	asyncJobWorkers     = map[string]*asyncJobWorker{}
)

func getAsyncJobWorker(group string) (ajw *asyncJobWorker) {
	asyncJobWorkersLock.RLock()
	ajw = asyncJobWorkers[group]
	asyncJobWorkersLock.RUnlock()

	if ajw == nil {
		asyncJobWorkersLock.Lock()
		ajw = asyncJobWorkers[group]
		if ajw == nil {
			ajw = newAsyncJobWorker(group)
			asyncJobWorkers[group] = ajw
		}
		asyncJobWorkersLock.Unlock()
	}
	return
}

// AppendAsyncJob runs the routine in the job worker of the group; jobs in one group run in order
func AppendAsyncJob(group string, routine AsyncRoutine, callback AsyncCallback) {
	ajw := getAsyncJobWorker(group)
	ajw.appendJob(routine, callback)
}

// Shutdown cancels running routines and waits for all job workers to quit
func Shutdown() {
	asyncCancelRunning()

	asyncJobWorkersLock.Lock()
	for _, ajw := range asyncJobWorkers {
		close(ajw.jobQueue)
	}
	asyncJobWorkers = map[string]*asyncJobWorker{}
	asyncJobWorkersLock.Unlock()

	numAsyncJobWorkersRunning.Wait()
}
