package common

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisOpTimeout = 2 * time.Second

var _ CacheRepository = (*redisCacheStore)(nil)

// redisCacheStore shares cached card lists between processes pointed at the
// same Redis. Redis failures degrade to cache misses.
type redisCacheStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCacheStore returns a CacheRepository backed by client. Keys are
// namespaced with prefix.
func NewRedisCacheStore(client redis.UniversalClient, prefix string) CacheRepository {
	return &redisCacheStore{
		client: client,
		prefix: prefix,
	}
}

func (r *redisCacheStore) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("redis cache get failed")
		return nil, false
	}
	return value, true
}

func (r *redisCacheStore) Set(key string, value []byte, expiration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, expiration).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("redis cache set failed")
	}
}

func (r *redisCacheStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		log.WithError(err).WithField("key", key).Error("redis cache delete failed")
	}
}
