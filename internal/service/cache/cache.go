package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. Deletion
// exists so event consumers can invalidate stale evaluations early; expiry
// otherwise handles cleanup.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
	DeleteBytes(key string) error
}
