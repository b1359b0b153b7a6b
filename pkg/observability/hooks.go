// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about graph insertions, backend queries, cache operations,
// and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// A Prometheus implementation is provided by [NewPrometheusHooks].
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewPrometheusHooks(prometheus.NewRegistry())
//	    observability.SetGraphHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Graph().OnAddStart(ctx, ref)
//	id, err := g.Add(ctx, ref)
//	observability.Graph().OnAddComplete(ctx, ref, g.Len(), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from graph construction.
type GraphHooks interface {
	// Insertion events. nodes is the graph size after the attempt.
	OnAddStart(ctx context.Context, ref string)
	OnAddComplete(ctx context.Context, ref string, nodes int, duration time.Duration, err error)

	// OnBackendCall records one repository query that was not served from
	// cache. op is "merge-base" or "distance".
	OnBackendCall(ctx context.Context, op string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request. route is the matched pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnAddStart(context.Context, string)                               {}
func (NoopGraphHooks) OnAddComplete(context.Context, string, int, time.Duration, error) {}
func (NoopGraphHooks) OnBackendCall(context.Context, string, time.Duration, error)      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks GraphHooks = NoopGraphHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any graph operations.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
