package cache

import (
	"context"
	"time"
)

// Cache is a read-through JSON cache. The core only caches dashboard-owned
// configuration (transfer settings), so every entry carries a TTL; there is
// no unbounded key space.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
