// Package idpool serves entity ids from blocks reserved in the deployment wide counter.
//
// Blocks are reserved by a background routine; results are posted back to the simulation
// routine, so ReserveEntityID never blocks and the local block list is only touched there.
package idpool

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/idpool/types"
	"github.com/spatialgw/spatialworker/engine/opmon"
	"github.com/spatialgw/spatialworker/engine/post"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// ErrPoolEmpty is returned when no reserved id is left locally; a refill is in flight
var ErrPoolEmpty = errors.New("entity id pool is empty")

// BackendOpener opens (or reopens) the backend
type BackendOpener func() (idpooltypes.IDPoolBackend, error)

type idRange struct {
	next, end common.EntityID // [next, end)
}

type reserveReq struct {
	count int
}

// Pool prefetches id blocks from the backend and grants them one by one
type Pool struct {
	open         BackendOpener
	backend      idpooltypes.IDPoolBackend
	blockSize    int
	lowWatermark int

	ranges     []idRange
	available  int
	requesting bool
	lastError  error

	reqQueue   *xnsyncutil.SyncQueue
	terminated *xnsyncutil.OneTimeCond
}

// NewPool creates the pool and starts its reservation routine
func NewPool(open BackendOpener, blockSize int, lowWatermark int) *Pool {
	p := &Pool{
		open:         open,
		blockSize:    blockSize,
		lowWatermark: lowWatermark,
		reqQueue:     xnsyncutil.NewSyncQueue(),
		terminated:   xnsyncutil.NewOneTimeCond(),
	}
	go p.routine()
	return p
}

// ReserveEntityID grants the next reserved id. It starts a refill when the pool runs low.
func (p *Pool) ReserveEntityID() (common.EntityID, error) {
	if p.available <= p.lowWatermark {
		p.Prefetch()
	}
	if p.available == 0 {
		if p.lastError != nil {
			return common.InvalidEntityID, errors.Wrapf(ErrPoolEmpty, "last reservation failed: %v", p.lastError)
		}
		return common.InvalidEntityID, ErrPoolEmpty
	}

	r := &p.ranges[0]
	id := r.next
	r.next++
	if r.next == r.end {
		p.ranges = p.ranges[1:]
	}
	p.available--
	return id, nil
}

// Available returns the number of ids reserved locally
func (p *Pool) Available() int {
	return p.available
}

// Prefetch requests a new block unless a request is already in flight
func (p *Pool) Prefetch() {
	if p.requesting {
		return
	}
	p.requesting = true
	p.reqQueue.Push(&reserveReq{count: p.blockSize})
	if qlen := p.reqQueue.Len(); qlen > consts.IDPOOL_REQUEST_QUEUE_SIZE_WARN {
		gwlog.Warnf("idpool: reservation queue length = %d", qlen)
	}
}

// Close stops the reservation routine and waits for it to quit
func (p *Pool) Close() {
	p.reqQueue.Close()
	p.terminated.Wait()
}

func (p *Pool) onReserved(first common.EntityID, count int, err error) {
	p.requesting = false
	if err != nil {
		p.lastError = err
		gwlog.Errorf("idpool: reserve %d ids failed: %v", count, err)
		return
	}
	p.lastError = nil
	p.ranges = append(p.ranges, idRange{next: first, end: first + common.EntityID(count)})
	p.available += count
	gwlog.Debugf("idpool: reserved ids %s..%s, %d available", first, first+common.EntityID(count-1), p.available)
	if p.available <= p.lowWatermark {
		p.Prefetch()
	}
}

func (p *Pool) assureBackendReady() (err error) {
	if p.backend != nil {
		return
	}
	p.backend, err = p.open()
	return
}

func (p *Pool) routine() {
	for {
		req := p.reqQueue.Pop()
		if req == nil { // queue is closed
			break
		}

		rr := req.(*reserveReq)
		first, err := p.reserve(rr.count)
		post.Post(func() {
			p.onReserved(first, rr.count, err)
		})
	}

	if p.backend != nil {
		p.backend.Close()
		p.backend = nil
	}
	p.terminated.Signal()
}

func (p *Pool) reserve(count int) (common.EntityID, error) {
	if err := p.assureBackendReady(); err != nil {
		time.Sleep(consts.IDPOOL_RETRY_INTERVAL)
		return common.InvalidEntityID, errors.Wrap(err, "idpool backend is not ready")
	}

	op := opmon.StartOperation("idpool.reserve")
	first, err := p.backend.ReserveBlock(count)
	op.Finish(consts.OPMON_RESERVE_WARN_THRESHOLD)
	if err != nil && p.backend.IsEOF(err) {
		p.backend.Close()
		p.backend = nil
	}
	if err == nil && !first.IsValid() {
		err = errors.Errorf("backend reserved invalid id %s", first)
	}
	return first, err
}
