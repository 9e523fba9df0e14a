// Package worker runs the session of one worker: it applies the inbound ops to the identity cache,
// the pending creation set and the spawn queue, and materializes queued entities every tick.
package worker

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/spatialgw/spatialworker/engine/allocator"
	"github.com/spatialgw/spatialworker/engine/arbitration"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/connection"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/gwvar"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/interest"
	"github.com/spatialgw/spatialworker/engine/post"
	"github.com/spatialgw/spatialworker/engine/proto"
	"github.com/spatialgw/spatialworker/engine/proximity"
	"github.com/spatialgw/spatialworker/engine/spawnqueue"
	"github.com/spatialgw/spatialworker/engine/spawnrules"
)

const (
	rsNotRunning = iota
	rsRunning
	rsTerminated
)

var (
	// ErrNotConnected is returned by operations that need a connected session
	ErrNotConnected = errors.New("worker is not connected")
	// ErrClosed is returned once the session is closed
	ErrClosed = errors.New("worker is closed")
)

// AuthorityListener is called when the worker gains or loses authority over an entity
type AuthorityListener func(id common.EntityID, authoritative bool)

// Options configures a worker session
type Options struct {
	// PathPrefix is the instance prefix of stably named paths
	PathPrefix string
	// SpawnPerTick is the number of entities materialized per tick
	SpawnPerTick int
	// Authority grants new entity ids, usually an *idpool.Pool
	Authority allocator.Authority
	// Materializer builds the local objects; nil only registers handles
	Materializer Materializer
	// Chain arbitrates added entities; nil installs the default rule table
	Chain *arbitration.Chain
	// Tracker receives entity positions; nil creates one with proximity.DefaultDistance
	Tracker *proximity.Tracker
	// InterestFrequency and FullSnapshot are the defaults of fragments made by NewFragment
	InterestFrequency float64
	FullSnapshot      bool
	// GlobalConstraint is AND-ed to every interest query; may be nil
	GlobalConstraint interest.GlobalConstraintFunc
}

// Worker is the session of a worker with the deployment.
//
// All methods must be called from the simulation routine, the one calling Tick.
type Worker struct {
	conn         connection.Handler
	cache        *identity.Cache
	allocator    *allocator.Allocator
	queue        *spawnqueue.Queue
	chain        *arbitration.Chain
	tracker      *proximity.Tracker
	materializer Materializer
	lb           *LBStrategy
	options      Options

	authoritative common.EntityIDSet
	interests     map[common.EntityID]*interest.Component
	outbox        []proto.Message
	tick          uint64
	runState      xnsyncutil.AtomicInt

	onConnected        []func()
	onConnectionFailed []func(err error)
	authorityListeners []AuthorityListener
}

// New creates a worker session over the connection
func New(conn connection.Handler, opts Options) (*Worker, error) {
	if conn == nil {
		return nil, errors.New("worker: nil connection")
	}
	if opts.Authority == nil {
		return nil, errors.New("worker: nil entity id authority")
	}
	if opts.SpawnPerTick <= 0 {
		opts.SpawnPerTick = consts.DEFAULT_SPAWN_PER_TICK
	}
	if opts.Tracker == nil {
		opts.Tracker = proximity.NewTracker(proximity.DefaultDistance)
	}
	if opts.Chain == nil {
		opts.Chain = arbitration.NewChain()
		if _, err := spawnrules.DefaultTable().Install(opts.Chain, opts.Tracker); err != nil {
			return nil, errors.Wrap(err, "worker: install default spawn rules")
		}
	}

	cache := identity.NewCache(opts.PathPrefix)
	w := &Worker{
		conn:          conn,
		cache:         cache,
		allocator:     allocator.New(opts.Authority, cache),
		queue:         spawnqueue.New(),
		chain:         opts.Chain,
		tracker:       opts.Tracker,
		materializer:  opts.Materializer,
		lb:            NewLBStrategy(conn.GetWorkerID()),
		options:       opts,
		authoritative: common.EntityIDSet{},
		interests:     map[common.EntityID]*interest.Component{},
	}
	return w, nil
}

func (w *Worker) String() string {
	return "Worker<" + string(w.conn.GetWorkerID()) + ">"
}

// OnConnected adds a listener called when Connect succeeds
func (w *Worker) OnConnected(f func()) {
	w.onConnected = append(w.onConnected, f)
}

// OnConnectionFailed adds a listener called with the reason when Connect fails
func (w *Worker) OnConnectionFailed(f func(err error)) {
	w.onConnectionFailed = append(w.onConnectionFailed, f)
}

// OnAuthorityChanged adds a listener of authority changes
func (w *Worker) OnAuthorityChanged(l AuthorityListener) {
	w.authorityListeners = append(w.authorityListeners, l)
}

// Connect starts the session; the connection must have a worker id
func (w *Worker) Connect() error {
	var err error
	switch w.runState.Load() {
	case rsRunning:
		return nil
	case rsTerminated:
		err = ErrClosed
	default:
		if w.conn.GetWorkerID().IsNil() {
			err = errors.Wrap(ErrNotConnected, "connection has no worker id")
		}
	}

	if err != nil {
		gwlog.Errorf("%s: connection failed: %v", w, err)
		for _, f := range w.onConnectionFailed {
			f(err)
		}
		return err
	}

	w.runState.Store(rsRunning)
	gwvar.IsConnected.Set(true)
	gwlog.Infof("%s: connected, attributes %v", w, w.conn.GetWorkerAttributes())
	for _, f := range w.onConnected {
		f()
	}
	return nil
}

// IsConnected returns if the session is running
func (w *Worker) IsConnected() bool {
	return w.runState.Load() == rsRunning
}

// Close ends the session: pending reservations are abandoned, the queue and the cache are cleared
func (w *Worker) Close() error {
	if w.runState.Load() == rsTerminated {
		return nil
	}
	w.runState.Store(rsTerminated)
	gwvar.IsConnected.Set(false)

	if n := w.allocator.CancelAll(); n > 0 {
		gwlog.Warnf("%s: closed with %d pending entity ids", w, n)
	}
	w.queue.Clear()
	w.cache.Clear()
	w.outbox = nil
	w.updateVars()
	return errors.Wrap(w.conn.Close(), "close connection")
}

// Tick advances the connection, applies the ops of the tick, materializes queued entities and flushes messages
func (w *Worker) Tick() error {
	if !w.IsConnected() {
		return ErrNotConnected
	}
	w.tick++
	w.conn.Advance()
	for w.conn.GetOpListCount() > 0 {
		ol := w.conn.GetNextOpList()
		if ol == nil {
			break
		}
		w.HandleOpList(ol)
	}

	// id pool refills and async callbacks
	post.Tick()

	w.MaterializeStep(w.options.SpawnPerTick)
	w.refreshInterests()
	err := w.Flush()
	w.updateVars()
	return err
}

// Flush sends the queued outbound messages
func (w *Worker) Flush() error {
	if len(w.outbox) == 0 {
		return nil
	}
	msgs := w.outbox
	w.outbox = nil
	return errors.Wrapf(w.conn.SendMessages(msgs), "%s: send %d messages", w, len(msgs))
}

func (w *Worker) send(msg proto.Message) {
	w.outbox = append(w.outbox, msg)
}

func (w *Worker) updateVars() {
	gwvar.PendingEntityIDs.Set(w.allocator.PendingCount())
	gwvar.SpawnQueueHigh.Set(w.queue.LenTier(spawnqueue.High))
	gwvar.SpawnQueueLow.Set(w.queue.LenTier(spawnqueue.Low))
	gwvar.CachedObjects.Set(w.cache.Len())
}

// CurrentTick returns the number of ticks run
func (w *Worker) CurrentTick() uint64 {
	return w.tick
}

// Cache returns the identity cache of the session
func (w *Worker) Cache() *identity.Cache {
	return w.cache
}

// Allocator returns the entity id allocator of the session
func (w *Worker) Allocator() *allocator.Allocator {
	return w.allocator
}

// Queue returns the spawn queue of the session
func (w *Worker) Queue() *spawnqueue.Queue {
	return w.queue
}

// Chain returns the arbitration chain of the session
func (w *Worker) Chain() *arbitration.Chain {
	return w.chain
}

// Tracker returns the proximity tracker of the session
func (w *Worker) Tracker() *proximity.Tracker {
	return w.tracker
}

// LBStrategy returns the load balancing strategy of the session
func (w *Worker) LBStrategy() *LBStrategy {
	return w.lb
}

// IsAuthoritative returns if the worker has authority over the entity
func (w *Worker) IsAuthoritative(id common.EntityID) bool {
	return w.authoritative.Contains(id)
}
