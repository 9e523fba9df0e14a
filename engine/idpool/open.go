package idpool

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/config"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/idpool/backend/idpoolmemory"
	"github.com/spatialgw/spatialworker/engine/idpool/backend/idpoolmongodb"
	"github.com/spatialgw/spatialworker/engine/idpool/backend/idpoolredis"
	"github.com/spatialgw/spatialworker/engine/idpool/backend/idpoolrediscluster"
	"github.com/spatialgw/spatialworker/engine/idpool/types"
)

// Opener returns the backend opener described by the config
func Opener(cfg *config.IDPoolConfig) BackendOpener {
	return func() (idpooltypes.IDPoolBackend, error) {
		switch cfg.Type {
		case "memory":
			return idpoolmemory.OpenMemoryBackend(0), nil
		case "redis":
			dbindex, err := strconv.Atoi(cfg.DB)
			if err != nil {
				return nil, errors.Wrap(err, "redis db must be integer")
			}
			return idpoolredis.OpenRedisBackend(cfg.Url, dbindex, cfg.Key)
		case "redis_cluster":
			return idpoolrediscluster.OpenRedisClusterBackend(cfg.StartNodes.ToList(), cfg.Key)
		case "mongodb":
			return idpoolmongodb.OpenMongoBackend(cfg.Url, cfg.DB, cfg.Collection, cfg.Key)
		}
		return nil, errors.Errorf("idpool type %s is not implemented", cfg.Type)
	}
}

// Open creates the pool described by the config and requests the first block
func Open(cfg *config.IDPoolConfig) *Pool {
	gwlog.Infof("idpool initializing, config:\n%s", config.DumpPretty(cfg))
	p := NewPool(Opener(cfg), cfg.BlockSize, cfg.LowWatermark)
	p.Prefetch()
	return p
}
