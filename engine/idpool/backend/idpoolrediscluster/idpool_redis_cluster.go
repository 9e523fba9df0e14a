package idpoolrediscluster

import (
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/idpool/types"
)

type redisClusterBackend struct {
	c   rediscluster.Cluster
	key string
}

// OpenRedisClusterBackend opens a redis cluster as the entity id counter
func OpenRedisClusterBackend(startNodes []string, key string) (idpooltypes.IDPoolBackend, error) {
	c, err := rediscluster.NewCluster(&rediscluster.Options{
		StartNodes:   startNodes,
		ConnTimeout:  10 * time.Second, // Connection timeout
		ReadTimeout:  60 * time.Second, // Read timeout
		WriteTimeout: 60 * time.Second, // Write timeout
		KeepAlive:    1,                // Maximum keep alive connecion in each node
		AliveTime:    10 * time.Minute, // Keep alive timeout
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect redis cluster failed")
	}

	return &redisClusterBackend{
		c:   c,
		key: key,
	}, nil
}

// ReserveBlock increments the counter by count; the block ends at the new counter value
func (b *redisClusterBackend) ReserveBlock(count int) (common.EntityID, error) {
	last, err := redis.Int64(b.c.Do("INCRBY", b.key, count))
	if err != nil {
		return common.InvalidEntityID, err
	}
	return common.EntityID(last - int64(count) + 1), nil
}

// IsEOF is always false: the cluster client reconnects to its nodes by itself
func (b *redisClusterBackend) IsEOF(err error) bool {
	return false
}

// Close does nothing: the cluster client keeps no closable handle
func (b *redisClusterBackend) Close() {
}
