// Package pipeline runs the extract → compose → render → plan chain.
//
// The CLI and the API server share this package so both apply the same
// defaults, validation and caching.
//
// # Stages
//
//  1. Load: decode a document tree, or extract one from a JSON/HTML canvas
//  2. Compose: paginate the document
//  3. Render: rebuild page trees and serialize them (JSON, SVG, PDF)
//  4. Plan: turn composition warnings into proposed property patches
//
// Each stage is cache-first: its result is looked up by a content hash of
// its inputs before it is computed. [Options.Refresh] bypasses lookups.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  pipeline.SourceCanvasHTML,
//	    Input:   html,
//	    Formats: []string{"pdf"},
//	    Plan:    true,
//	})
//	pdf := result.Artifacts["pdf"]
//
// Stages also run individually ([Runner.Load], [Runner.Compose],
// [Runner.Render], [Runner.Plan]), and [Runner.ComposeBatch] paginates many
// documents concurrently.
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/planner"
	"github.com/matzehuels/pagesetter/pkg/render"
	"github.com/matzehuels/pagesetter/pkg/render/sink"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultZoom is used when neither the options nor the canvas set one.
	DefaultZoom = 1.0

	// DefaultBatchLimit bounds concurrent compositions in ComposeBatch.
	DefaultBatchLimit = 8
)

// Input sources.
const (
	SourceDocument   = "document"
	SourceCanvasJSON = "canvas"
	SourceCanvasHTML = "html"
)

// Sources lists every input source.
var Sources = []string{SourceDocument, SourceCanvasJSON, SourceCanvasHTML}

// DefaultFormats are rendered when none are requested.
var DefaultFormats = []string{sink.FormatJSON}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. The JSON form is the API request body
// minus the input itself.
type Options struct {
	// Load options
	Source string  `json:"source"`
	Input  []byte  `json:"-"`
	Zoom   float64 `json:"zoom,omitempty"`
	// Preset replaces the input's page template with a named preset.
	Preset string `json:"preset,omitempty"`
	// Template replaces the input's page template; it wins over Preset.
	Template *document.PageTemplate `json:"template,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`

	// Plan builds a remediation plan from the composition warnings.
	Plan bool `json:"plan,omitempty"`

	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result holds the outputs of a run.
type Result struct {
	Document     document.Document
	DocumentHash string
	Composition  compose.Result
	Rendered     render.Rendered
	// Artifacts are serialized outputs keyed by format.
	Artifacts map[string][]byte
	// Plan is nil unless Options.Plan was set.
	Plan *planner.Plan

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds sizes and timings of a run.
type Stats struct {
	Nodes       int
	Layout      compose.Stats
	LoadTime    time.Duration
	ComposeTime time.Duration
	RenderTime  time.Duration
	PlanTime    time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	LoadHit    bool
	ComposeHit bool
	RenderHit  bool
	PlanHit    bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks every format against [sink.Formats].
func ValidateFormats(formats []string) error {
	return errs.ValidateFormats(formats, sink.Formats)
}

// ValidateSource checks the input source name.
func ValidateSource(source string) error {
	if !slices.Contains(Sources, source) {
		return errs.New(errs.ErrCodeInvalidInput, "invalid source %q (must be one of: document, canvas, html)", source)
	}
	return nil
}

// ValidatePreset checks a preset name. Empty is allowed.
func ValidatePreset(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := document.Preset(name); !ok {
		return errs.New(errs.ErrCodeInvalidTemplate, "unknown page preset %q (known: %v)", name, document.PresetNames())
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults validates the options of a full run. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input options.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		o.Source = SourceDocument
	}
	if err := ValidateSource(o.Source); err != nil {
		return err
	}
	if len(o.Input) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "input is empty")
	}
	if o.Zoom < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "zoom must be positive, got %v", o.Zoom)
	}
	if err := ValidatePreset(o.Preset); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// ValidateForRender applies render defaults and checks the formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

// PageTemplate returns the template override, if any.
func (o *Options) PageTemplate() (*document.PageTemplate, error) {
	if o.Template != nil {
		t, err := document.ResolveTemplate(*o.Template)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	if o.Preset != "" {
		t, ok := document.Preset(o.Preset)
		if !ok {
			return nil, ValidatePreset(o.Preset)
		}
		return &t, nil
	}
	return nil, nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
