package idpoolredis

import (
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/idpool/types"
)

type redisBackend struct {
	c   redis.Conn
	key string
}

// OpenRedisBackend opens redis as the entity id counter
func OpenRedisBackend(host string, dbindex int, key string) (idpooltypes.IDPoolBackend, error) {
	c, err := redis.Dial("tcp", host)
	if err != nil {
		return nil, errors.Wrap(err, "redis dail failed")
	}

	if _, err := c.Do("SELECT", dbindex); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "redis select db failed")
	}

	return &redisBackend{
		c:   c,
		key: key,
	}, nil
}

// ReserveBlock increments the counter by count; the block ends at the new counter value
func (b *redisBackend) ReserveBlock(count int) (common.EntityID, error) {
	last, err := redis.Int64(b.c.Do("INCRBY", b.key, count))
	if err != nil {
		return common.InvalidEntityID, err
	}
	return common.EntityID(last - int64(count) + 1), nil
}

// IsEOF returns if the connection is broken and must be reopened
func (b *redisBackend) IsEOF(err error) bool {
	return b.c.Err() != nil
}

func (b *redisBackend) Close() {
	b.c.Close()
}
