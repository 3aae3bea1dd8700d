package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes pipeline, cache and server events to a logger at debug
// level. Failed stages are logged at error level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks { return &LogHooks{Logger: logger} }

func (h *LogHooks) OnStageStart(_ context.Context, stage Stage) {
	h.Logger.Debug("stage start", "stage", stage)
}

func (h *LogHooks) OnStageComplete(_ context.Context, stage Stage, s StageSummary, d time.Duration, err error) {
	if err != nil {
		h.Logger.Error("stage failed", "stage", stage, "duration", d, "err", err)
		return
	}
	kv := []any{"stage", stage, "duration", d.Round(time.Microsecond)}
	if s.Cached {
		kv = append(kv, "cached", true)
	}
	for _, f := range []struct {
		key string
		val int
	}{{"nodes", s.Nodes}, {"pages", s.Pages}, {"warnings", s.Warnings}, {"operations", s.Operations}, {"bytes", s.Bytes}} {
		if f.val > 0 {
			kv = append(kv, f.key, f.val)
		}
	}
	h.Logger.Debug("stage done", kv...)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType Stage) {
	h.Logger.Debug("cache hit", "stage", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType Stage) {
	h.Logger.Debug("cache miss", "stage", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType Stage, size int) {
	h.Logger.Debug("cache set", "stage", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("request", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
