package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, StageCompose)
	p.OnStageComplete(ctx, StageCompose, StageSummary{Pages: 2}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, StageCompose)
	c.OnCacheMiss(ctx, StageRender)
	c.OnCacheSet(ctx, StagePlan, 1024)

	NoopServerHooks{}.OnRequest(ctx, "POST", "/v1/compose", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should default to NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should default to NoopCacheHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should default to NoopServerHooks")
	}

	h := NewLogHooks(log.New(&bytes.Buffer{}))
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetServerHooks(h)
	if Pipeline() != PipelineHooks(h) || Cache() != CacheHooks(h) || Server() != ServerHooks(h) {
		t.Error("Set*Hooks did not register the hooks")
	}

	SetPipelineHooks(nil)
	if Pipeline() != PipelineHooks(h) {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore the no-op hooks")
	}
}

func TestLogHooks(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	h := NewLogHooks(logger)

	h.OnStageStart(ctx, StageCompose)
	h.OnStageComplete(ctx, StageCompose, StageSummary{Pages: 3, Warnings: 1, Cached: true}, time.Millisecond, nil)
	h.OnStageComplete(ctx, StageRender, StageSummary{}, time.Millisecond, errors.New("boom"))
	h.OnCacheMiss(ctx, StagePlan)

	out := buf.String()
	for _, want := range []string{"stage start", "pages=3", "warnings=1", "cached=true", "stage failed", "err=boom", "cache miss"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "operations=") {
		t.Error("zero summary fields should be omitted")
	}
}
