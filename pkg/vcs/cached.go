package vcs

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeMergeBase = "mergebase"
	keyTypeDistance  = "distance"
)

// Cached wraps a Backend and stores merge bases and distances in a cache.
//
// Both are functions of two canonical commit ids and never change, so
// entries are written without expiry. Resolve always reaches the inner
// backend because references move. Inner calls that fail with a
// [cache.Retryable] error are retried with backoff.
type Cached struct {
	inner  Backend
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// CachedOption configures a Cached backend.
type CachedOption func(*Cached)

// WithKeyer sets the keyer, typically a [cache.ScopedKeyer] per repository.
func WithKeyer(k cache.Keyer) CachedOption {
	return func(c *Cached) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithCacheLogger sets the logger for cache diagnostics.
func WithCacheLogger(l *log.Logger) CachedOption {
	return func(c *Cached) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCached wraps inner. A nil cache disables storage but keeps retries and
// hooks.
func NewCached(inner Backend, c cache.Cache, opts ...CachedOption) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	cb := &Cached{
		inner:  inner,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Resolve implements [ancestry.Backend]. It is never cached.
func (c *Cached) Resolve(ctx context.Context, ref string) (ancestry.CommitID, error) {
	var id ancestry.CommitID
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		id, err = c.inner.Resolve(ctx, ref)
		return err
	})
	return id, err
}

// CommonAncestor implements [ancestry.Backend].
func (c *Cached) CommonAncestor(ctx context.Context, a, b ancestry.CommitID) (ancestry.CommitID, error) {
	key := c.keyer.MergeBaseKey(string(a), string(b))
	if data, ok := c.lookup(ctx, key, keyTypeMergeBase); ok {
		return ancestry.CommitID(data), nil
	}

	var base ancestry.CommitID
	err := c.call(ctx, "merge-base", func() error {
		var err error
		base, err = c.inner.CommonAncestor(ctx, a, b)
		return err
	})
	if err != nil {
		return "", err
	}
	c.store(ctx, key, keyTypeMergeBase, []byte(base))
	return base, nil
}

// Distance implements [Backend].
func (c *Cached) Distance(ctx context.Context, from, to ancestry.CommitID) (int, error) {
	key := c.keyer.DistanceKey(string(from), string(to))
	if data, ok := c.lookup(ctx, key, keyTypeDistance); ok {
		if n, err := strconv.Atoi(string(data)); err == nil {
			return n, nil
		}
		c.logger.Debug("discarding malformed cache entry", "key", key)
	}

	var n int
	err := c.call(ctx, "distance", func() error {
		var err error
		n, err = c.inner.Distance(ctx, from, to)
		return err
	})
	if err != nil {
		return 0, err
	}
	c.store(ctx, key, keyTypeDistance, []byte(strconv.Itoa(n)))
	return n, nil
}

// Close closes the inner backend and the cache.
func (c *Cached) Close() error {
	err := c.inner.Close()
	if cerr := c.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

// lookup reads key and reports hits and misses. Cache failures are misses.
func (c *Cached) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "err", err)
		ok = false
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return nil, false
}

// store writes key without expiry. A failed write only costs a later miss.
func (c *Cached) store(ctx context.Context, key, keyType string, data []byte) {
	if err := c.cache.Set(ctx, key, data, 0); err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// call runs fn with retries and reports it as one backend call.
func (c *Cached) call(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := cache.RetryWithBackoff(ctx, fn)
	observability.Graph().OnBackendCall(ctx, op, time.Since(start), err)
	return err
}

// Ensure Cached implements Backend.
var _ Backend = (*Cached)(nil)
