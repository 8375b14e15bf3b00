package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "StakeWatch/pkg/cache"
)

// RedisCache adapts the shared prefix-keyed Redis cache service to the
// BytesCache port. Values round-trip as raw strings so encoded evaluations
// are stored byte-exact.
type RedisCache struct {
	svc pkgcache.Service
}

func NewRedisCache(svc pkgcache.Service) *RedisCache {
	return &RedisCache{svc: svc}
}

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
	var s string
	if err := r.svc.Get(context.Background(), key, &s); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(s), true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.svc.Set(context.Background(), key, string(value), ttl)
}

func (r *RedisCache) DeleteBytes(key string) error {
	return r.svc.Delete(context.Background(), key)
}

var _ BytesCache = (*RedisCache)(nil)
