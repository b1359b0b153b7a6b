// Package cache stores answers to repository queries that never change.
//
// The merge base of two commit ids and the distance between them are fixed
// once both ids exist, so they can be kept indefinitely and shared between
// runs. References move, and their resolution is never cached.
//
// Four implementations are provided:
//
//   - [NullCache] stores nothing
//   - [MemoryCache] is a bounded in-process LRU
//   - [FileCache] keeps one JSON file per entry for CLI runs
//   - [RedisCache] shares entries between processes and hosts
//
// Keys are built by a [Keyer] so that several repositories can share one
// store without colliding (see [ScopedKeyer]).
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok=false and a nil error. A ttl of zero stores the
// entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
