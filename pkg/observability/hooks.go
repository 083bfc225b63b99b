// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about editor transactions, pipeline runs, map storage, cache
// lookups and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the engine packages stay
// free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnTransactionStart(ctx, id, "rebalance")
//	// ... mutate the clone ...
//	observability.Engine().OnTransactionCommit(ctx, id, "rebalance", duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from mind map editor transactions.
type EngineHooks interface {
	// Transaction lifecycle. Every mutating editor call is one transaction.
	OnTransactionStart(ctx context.Context, id, op string)
	OnTransactionCommit(ctx context.Context, id, op string, duration time.Duration)
	OnTransactionRollback(ctx context.Context, id, op string, err error)

	// OnLayout records one call into the layout primitive.
	OnLayout(ctx context.Context, side string, nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load → balance → render pipeline.
type PipelineHooks interface {
	OnLoadComplete(ctx context.Context, source string, nodeCount int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from mind map persistence.
type StoreHooks interface {
	OnLoad(ctx context.Context, backend, name string, err error)
	OnSave(ctx context.Context, backend, name string, size int, err error)
	OnDelete(ctx context.Context, backend, name string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives layout and artifact cache lookups. keyType is
// "layout" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives requests served by the HTTP API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnTransactionStart(context.Context, string, string)                 {}
func (NoopEngineHooks) OnTransactionCommit(context.Context, string, string, time.Duration) {}
func (NoopEngineHooks) OnTransactionRollback(context.Context, string, string, error)       {}
func (NoopEngineHooks) OnLayout(context.Context, string, int, time.Duration, error)        {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, string, error)      {}
func (NoopStoreHooks) OnSave(context.Context, string, string, int, error) {}
func (NoopStoreHooks) OnDelete(context.Context, string, string, error)    {}

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
// Registry
// =============================================================================

type registry struct {
	engine   EngineHooks
	pipeline PipelineHooks
	store    StoreHooks
	cache    CacheHooks
	http     HTTPHooks
}

func noop() registry {
	return registry{
		engine:   NoopEngineHooks{},
		pipeline: NoopPipelineHooks{},
		store:    NoopStoreHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	}
}

var (
	hooksMu sync.RWMutex
	hooks   = noop()
)

// set replaces one slot of the registry. A nil h is ignored.
func set[T any](slot *T, h T) {
	if any(h) == nil {
		return
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	*slot = h
}

// SetEngineHooks registers engine hooks. Call it before creating editors.
func SetEngineHooks(h EngineHooks) { set(&hooks.engine, h) }

// SetPipelineHooks registers pipeline hooks.
func SetPipelineHooks(h PipelineHooks) { set(&hooks.pipeline, h) }

// SetStoreHooks registers store hooks.
func SetStoreHooks(h StoreHooks) { set(&hooks.store, h) }

// SetCacheHooks registers cache hooks.
func SetCacheHooks(h CacheHooks) { set(&hooks.cache, h) }

// SetHTTPHooks registers HTTP hooks.
func SetHTTPHooks(h HTTPHooks) { set(&hooks.http, h) }

func current() registry {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks { return current().engine }

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return current().pipeline }

// Store returns the registered store hooks.
func Store() StoreHooks { return current().store }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current().http }

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = noop()
}
