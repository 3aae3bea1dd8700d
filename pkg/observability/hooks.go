package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names a pipeline step.
type Stage string

const (
	StageExtract Stage = "extract"
	StageCompose Stage = "compose"
	StageRender  Stage = "render"
	StagePlan    Stage = "plan"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// StageSummary describes a finished stage. Fields not relevant to the stage
// are zero.
type StageSummary struct {
	Nodes      int
	Pages      int
	Warnings   int
	Operations int
	Bytes      int
	Cached     bool
}

// PipelineHooks receives stage events from the pipeline.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage Stage)
	OnStageComplete(ctx context.Context, stage Stage, summary StageSummary, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives cache lookups and writes. keyType is the stage whose
// entry was accessed.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType Stage)
	OnCacheMiss(ctx context.Context, keyType Stage)
	OnCacheSet(ctx context.Context, keyType Stage, size int)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives one event per API request.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, Stage) {}
func (NoopPipelineHooks) OnStageComplete(context.Context, Stage, StageSummary, time.Duration, error) {
}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, Stage)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, Stage)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, Stage, int) {}

type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	serverHooks   ServerHooks   = NoopServerHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers API server hooks. Nil is ignored.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
