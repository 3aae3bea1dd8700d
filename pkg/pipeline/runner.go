package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	"github.com/matzehuels/pagesetter/pkg/observability"
	"github.com/matzehuels/pagesetter/pkg/planner"
	"github.com/matzehuels/pagesetter/pkg/render"
)

// Runner executes pipeline stages against a cache. It holds no per-run
// state, so one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil cache disables caching and a nil keyer
// selects the default key scheme.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs every stage. Structural errors abort the run; warnings are
// part of the result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{}

	// Stage 1: Load
	start := time.Now()
	doc, hit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Document = doc
	result.Stats.Nodes = doc.Len()
	result.Stats.LoadTime = time.Since(start)
	result.CacheInfo.LoadHit = hit
	if result.DocumentHash, err = cache.HashJSON(doc); err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}

	opts.Logger.Info("loaded document",
		"nodes", doc.Len(),
		"template", doc.Template.Name,
		"duration", result.Stats.LoadTime)

	// Stage 2: Compose
	start = time.Now()
	res, hit, err := r.composeHashed(ctx, doc, result.DocumentHash, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	result.Composition = res
	result.Stats.Layout = res.Stats()
	result.Stats.ComposeTime = time.Since(start)
	result.CacheInfo.ComposeHit = hit

	opts.Logger.Info("composed pages",
		"pages", len(res.Pages),
		"warnings", len(res.Warnings),
		"duration", result.Stats.ComposeTime)
	for _, w := range res.Warnings {
		opts.Logger.Warn(w.Message, "kind", w.Kind)
	}

	// Stage 3: Render
	start = time.Now()
	rendered, artifacts, hit, err := r.renderHashed(ctx, doc, res, result.DocumentHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Rendered = rendered
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	// Stage 4: Plan
	if opts.Plan {
		start = time.Now()
		plan, hit, err := r.planHashed(ctx, doc, res, result.DocumentHash, opts.Refresh)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		result.Plan = &plan
		result.Stats.PlanTime = time.Since(start)
		result.CacheInfo.PlanHit = hit

		opts.Logger.Info("built plan",
			"operations", len(plan.Operations),
			"duration", result.Stats.PlanTime)
	}

	return result, nil
}

// =============================================================================
// Stage 1: Load
// =============================================================================

// LoadWithCacheInfo decodes or extracts the input document. Canvas
// extraction is cached; decoding a document tree is not.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (document.Document, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return document.Document{}, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StageExtract)
	start := time.Now()

	if opts.Source == SourceDocument {
		doc, err := Load(opts)
		hooks.OnStageComplete(ctx, observability.StageExtract, observability.StageSummary{Nodes: doc.Len()}, time.Since(start), err)
		return doc, false, err
	}

	key := r.Keyer.ExtractKey(cache.Hash(opts.Input), opts.extractKeyOpts())
	var tree document.Tree
	if !opts.Refresh && r.lookup(ctx, observability.StageExtract, key, &tree) {
		if doc, err := document.FromTree(tree); err == nil {
			hooks.OnStageComplete(ctx, observability.StageExtract,
				observability.StageSummary{Nodes: doc.Len(), Cached: true}, time.Since(start), nil)
			return doc, true, nil
		}
	}

	doc, err := Load(opts)
	hooks.OnStageComplete(ctx, observability.StageExtract, observability.StageSummary{Nodes: doc.Len()}, time.Since(start), err)
	if err != nil {
		return document.Document{}, false, err
	}
	r.store(ctx, observability.StageExtract, key, document.ToTree(&doc), cache.TTLExtract)
	return doc, false, nil
}

// Load is LoadWithCacheInfo without the cache information.
func (r *Runner) Load(ctx context.Context, opts Options) (document.Document, error) {
	doc, _, err := r.LoadWithCacheInfo(ctx, opts)
	return doc, err
}

// =============================================================================
// Stage 2: Compose
// =============================================================================

// ComposeWithCacheInfo paginates doc, reusing a cached result for an
// identical document.
func (r *Runner) ComposeWithCacheInfo(ctx context.Context, doc document.Document, refresh bool) (compose.Result, bool, error) {
	hash, err := cache.HashJSON(doc)
	if err != nil {
		return compose.Result{}, false, fmt.Errorf("hash document: %w", err)
	}
	return r.composeHashed(ctx, doc, hash, refresh)
}

// Compose is ComposeWithCacheInfo without the cache information.
func (r *Runner) Compose(ctx context.Context, doc document.Document) (compose.Result, error) {
	res, _, err := r.ComposeWithCacheInfo(ctx, doc, false)
	return res, err
}

func (r *Runner) composeHashed(ctx context.Context, doc document.Document, hash string, refresh bool) (compose.Result, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StageCompose)
	start := time.Now()

	key := r.Keyer.ComposeKey(hash)
	var res compose.Result
	if !refresh && r.lookup(ctx, observability.StageCompose, key, &res) {
		hooks.OnStageComplete(ctx, observability.StageCompose, composeSummary(res, true), time.Since(start), nil)
		return res, true, nil
	}

	res, err := compose.Compose(doc)
	hooks.OnStageComplete(ctx, observability.StageCompose, composeSummary(res, false), time.Since(start), err)
	if err != nil {
		return compose.Result{}, false, err
	}
	r.store(ctx, observability.StageCompose, key, res, cache.TTLCompose)
	return res, false, nil
}

func composeSummary(res compose.Result, cached bool) observability.StageSummary {
	return observability.StageSummary{Pages: len(res.Pages), Warnings: len(res.Warnings), Cached: cached}
}

// ComposeBatch paginates docs concurrently, at most limit at a time (zero
// selects DefaultBatchLimit). Results keep the order of docs. The first
// error cancels the remaining work.
func (r *Runner) ComposeBatch(ctx context.Context, docs []document.Document, limit int) ([]compose.Result, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	results := make([]compose.Result, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, _, err := r.ComposeWithCacheInfo(ctx, docs[i], false)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// =============================================================================
// Stage 3: Render
// =============================================================================

// RenderWithCacheInfo rebuilds the page trees and serializes them in every
// requested format. The hit flag is set only when every artifact came from
// the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc document.Document, res compose.Result, opts Options) (render.Rendered, map[string][]byte, bool, error) {
	hash, err := cache.HashJSON(doc)
	if err != nil {
		return render.Rendered{}, nil, false, fmt.Errorf("hash document: %w", err)
	}
	return r.renderHashed(ctx, doc, res, hash, opts)
}

// Render is RenderWithCacheInfo without the cache information.
func (r *Runner) Render(ctx context.Context, doc document.Document, res compose.Result, opts Options) (render.Rendered, map[string][]byte, error) {
	out, artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, res, opts)
	return out, artifacts, err
}

func (r *Runner) renderHashed(ctx context.Context, doc document.Document, res compose.Result, hash string, opts Options) (render.Rendered, map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return render.Rendered{}, nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StageRender)
	start := time.Now()

	out, err := render.Render(res, doc)
	if err != nil {
		hooks.OnStageComplete(ctx, observability.StageRender, observability.StageSummary{}, time.Since(start), err)
		return render.Rendered{}, nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(hash, opts.renderKeyOpts(format))
		if data, ok := r.lookupBytes(ctx, key, opts.Refresh); ok {
			artifacts[format] = data
		} else {
			missing = append(missing, format)
		}
	}
	allCached := len(missing) == 0

	if !allCached {
		rendered, err := Serialize(ctx, out, res.Warnings, missing, opts.Labels)
		if err != nil {
			hooks.OnStageComplete(ctx, observability.StageRender, observability.StageSummary{}, time.Since(start), err)
			return render.Rendered{}, nil, false, err
		}
		for format, data := range rendered {
			artifacts[format] = data
			key := r.Keyer.RenderKey(hash, opts.renderKeyOpts(format))
			if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err == nil {
				observability.Cache().OnCacheSet(ctx, observability.StageRender, len(data))
			}
		}
	}

	size := 0
	for _, data := range artifacts {
		size += len(data)
	}
	hooks.OnStageComplete(ctx, observability.StageRender,
		observability.StageSummary{Pages: len(out.Pages), Bytes: size, Cached: allCached}, time.Since(start), nil)
	return out, artifacts, allCached, nil
}

// =============================================================================
// Stage 4: Plan
// =============================================================================

// PlanWithCacheInfo builds the remediation plan for res's warnings against
// doc.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, doc document.Document, res compose.Result, refresh bool) (planner.Plan, bool, error) {
	hash, err := cache.HashJSON(doc)
	if err != nil {
		return planner.Plan{}, false, fmt.Errorf("hash document: %w", err)
	}
	return r.planHashed(ctx, doc, res, hash, refresh)
}

// Plan is PlanWithCacheInfo without the cache information.
func (r *Runner) Plan(ctx context.Context, doc document.Document, res compose.Result) (planner.Plan, error) {
	plan, _, err := r.PlanWithCacheInfo(ctx, doc, res, false)
	return plan, err
}

func (r *Runner) planHashed(ctx context.Context, doc document.Document, res compose.Result, hash string, refresh bool) (planner.Plan, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StagePlan)
	start := time.Now()

	key := r.Keyer.PlanKey(hash)
	var plan planner.Plan
	if !refresh && r.lookup(ctx, observability.StagePlan, key, &plan) {
		hooks.OnStageComplete(ctx, observability.StagePlan,
			observability.StageSummary{Operations: len(plan.Operations), Cached: true}, time.Since(start), nil)
		return plan, true, nil
	}

	plan, err := planner.BuildPlan(res.Warnings, planner.NewDocumentContext(&doc))
	hooks.OnStageComplete(ctx, observability.StagePlan,
		observability.StageSummary{Operations: len(plan.Operations)}, time.Since(start), err)
	if err != nil {
		return planner.Plan{}, false, err
	}
	r.store(ctx, observability.StagePlan, key, plan, cache.TTLPlan)
	return plan, false, nil
}

// =============================================================================
// Cache Helpers
// =============================================================================

// lookup decodes a cached JSON value into v. Undecodable entries count as
// misses.
func (r *Runner) lookup(ctx context.Context, stage observability.Stage, key string, v any) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "stage", stage, "err", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, stage)
		return false
	}
	observability.Cache().OnCacheHit(ctx, stage)
	return true
}

func (r *Runner) lookupBytes(ctx context.Context, key string, refresh bool) ([]byte, bool) {
	if refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, observability.StageRender)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, observability.StageRender)
	return data, true
}

// store caches v as JSON. Cache failures are logged, never returned.
func (r *Runner) store(ctx context.Context, stage observability.Stage, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "stage", stage, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, stage, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
