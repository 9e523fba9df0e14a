package main

import (
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
	"golang.org/x/net/context"

	"github.com/spatialgw/spatialworker/engine/arbitration"
	"github.com/spatialgw/spatialworker/engine/async"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/config"
	"github.com/spatialgw/spatialworker/engine/connection"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/identity"
	"github.com/spatialgw/spatialworker/engine/idpool"
	"github.com/spatialgw/spatialworker/engine/opmon"
	"github.com/spatialgw/spatialworker/engine/proximity"
	"github.com/spatialgw/spatialworker/engine/spawnrules"
	"github.com/spatialgw/spatialworker/engine/uuid"
	"github.com/spatialgw/spatialworker/engine/worker"
)

const (
	rsRunning = iota
	rsTerminating
	rsTerminated
)

type workerService struct {
	config     *config.WorkerConfig
	worker     *worker.Worker
	pool       *idpool.Pool
	replay     *connection.ReplayHandler
	runState   xnsyncutil.AtomicInt
	terminated *xnsyncutil.OneTimeCond
}

func newWorkerService(cfg *config.WorkerConfig, replayFile string) (*workerService, error) {
	workerID := common.WorkerID(uuid.GenWorkerID(cfg.WorkerType))

	var conn connection.Handler
	var replay *connection.ReplayHandler
	if replayFile != "" {
		var err error
		replay, err = connection.OpenReplayFile(resolveConfigPath(replayFile), workerID)
		if err != nil {
			return nil, err
		}
		conn = replay
	} else {
		gwlog.Warnf("no replay file configured, worker %s runs without inbound ops", workerID)
		conn = connection.NewMockHandler(workerID, cfg.WorkerType)
	}

	tracker := proximity.NewTracker(proximity.DefaultDistance)
	table := spawnrules.DefaultTable()
	if cfg.RulesFile != "" {
		var err error
		if table, err = spawnrules.LoadRules(resolveConfigPath(cfg.RulesFile)); err != nil {
			return nil, err
		}
	}
	chain := arbitration.NewChain()
	if _, err := table.Install(chain, tracker); err != nil {
		return nil, errors.Wrap(err, "install spawn rules")
	}
	gwlog.Infof("spawn rules: %v", chain.Names())

	pool := idpool.Open(config.GetIDPool())
	interestConfig := config.GetInterest()
	w, err := worker.New(conn, worker.Options{
		PathPrefix:        cfg.PathPrefix,
		SpawnPerTick:      cfg.SpawnPerTick,
		Authority:         pool,
		Materializer:      worker.NewAsyncMaterializer("materialize", prepareEntity, buildEntity, releaseEntity),
		Chain:             chain,
		Tracker:           tracker,
		InterestFrequency: interestConfig.Frequency,
		FullSnapshot:      interestConfig.FullSnapshot,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	s := &workerService{
		config:     cfg,
		worker:     w,
		pool:       pool,
		replay:     replay,
		terminated: xnsyncutil.NewOneTimeCond(),
	}
	w.OnConnected(func() {
		gwlog.Infof("worker %s connected", workerID)
	})
	w.OnConnectionFailed(func(err error) {
		gwlog.Errorf("worker %s connection failed: %v", workerID, err)
	})
	w.OnAuthorityChanged(func(id common.EntityID, authoritative bool) {
		if consts.DEBUG_MODE {
			gwlog.Debugf("authority over %s: %v", id, authoritative)
		}
	})
	return s, nil
}

func resolveConfigPath(p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(config.GetConfigDir(), p)
}

func (s *workerService) run() {
	s.runState.Store(rsRunning)
	if err := s.worker.Connect(); err != nil {
		gwlog.Errorf("connect failed: %v", err)
		s.shutdown()
		return
	}

	timer.AddTimer(consts.OPMON_DUMP_INTERVAL, opmon.Dump)
	ticker := time.Tick(consts.WORKER_TICK_INTERVAL)
	for range ticker {
		if s.runState.Load() == rsTerminating {
			s.shutdown()
			return
		}

		if err := s.worker.Tick(); err != nil {
			gwlog.Errorf("tick %d: %v", s.worker.CurrentTick(), err)
		}
		timer.Tick()

		if s.replay != nil && s.replay.IsFinished() && s.worker.Queue().Len() == 0 {
			gwlog.Infof("replay finished at tick %d", s.worker.CurrentTick())
			s.shutdown()
			return
		}
	}
}

// terminate is posted by the signal handler and runs in the tick routine
func (s *workerService) terminate() {
	s.runState.Store(rsTerminating)
}

func (s *workerService) shutdown() {
	if err := s.worker.Close(); err != nil {
		gwlog.Errorf("close worker: %v", err)
	}
	s.pool.Close()
	async.Shutdown()
	opmon.Dump()
	s.runState.Store(rsTerminated)
	s.terminated.Signal()
}

// prepareEntity, buildEntity and releaseEntity stand in for engine object construction
func prepareEntity(ctx context.Context, id common.EntityID) (interface{}, error) {
	return nil, ctx.Err()
}

func buildEntity(id common.EntityID, h identity.LocalHandle, prepared interface{}) error {
	gwlog.Infof("materialize entity %s as %s", id, h)
	return nil
}

func releaseEntity(id common.EntityID, h identity.LocalHandle) {
	gwlog.Infof("release entity %s (%s)", id, h)
}
