// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about pipeline execution and cache
// operations; libraries call the hooks to emit events. Defaults are no-ops,
// so uninstrumented binaries pay only an interface call.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the render pipeline.
type PipelineHooks interface {
	// Parse events
	OnParseStart(ctx context.Context, templateDir string)
	OnParseComplete(ctx context.Context, templateDir string, placements int, duration time.Duration, err error)

	// Compose events
	OnComposeStart(ctx context.Context, templateName string, photos int)
	OnComposeComplete(ctx context.Context, templateName string, duration time.Duration, err error)

	// Encode events
	OnEncodeStart(ctx context.Context, format string)
	OnEncodeComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// noopPipelineHooks is the default no-op implementation.
type noopPipelineHooks struct{}

func (noopPipelineHooks) OnParseStart(context.Context, string)                                {}
func (noopPipelineHooks) OnParseComplete(context.Context, string, int, time.Duration, error)  {}
func (noopPipelineHooks) OnComposeStart(context.Context, string, int)                         {}
func (noopPipelineHooks) OnComposeComplete(context.Context, string, time.Duration, error)     {}
func (noopPipelineHooks) OnEncodeStart(context.Context, string)                               {}
func (noopPipelineHooks) OnEncodeComplete(context.Context, string, int, time.Duration, error) {}

// noopCacheHooks is the default no-op implementation.
type noopCacheHooks struct{}

func (noopCacheHooks) OnCacheHit(context.Context, string)      {}
func (noopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (noopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	mu            sync.RWMutex
	pipelineHooks PipelineHooks = noopPipelineHooks{}
	cacheHooks    CacheHooks    = noopCacheHooks{}
)

// SetPipelineHooks registers pipeline instrumentation. Call at startup,
// before the pipeline runs.
func SetPipelineHooks(h PipelineHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = noopPipelineHooks{}
	}
	pipelineHooks = h
}

// SetCacheHooks registers cache instrumentation. Call at startup.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = noopCacheHooks{}
	}
	cacheHooks = h
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}
