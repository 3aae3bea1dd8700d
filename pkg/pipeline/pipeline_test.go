package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/observability"
)

// sampleDocument overflows its first page and splits a group with an
// orphans adjustment.
func sampleDocument() document.Document {
	b := document.NewBuilder(document.PageTemplate{Width: 800, Height: 1100, ContentPadding: 50})
	b.Add(document.NoParent, document.Node{ID: "photo", Kind: document.KindRootBlock, Height: 1400})
	b.Add(document.NoParent, document.Node{ID: "intro", Kind: document.KindRootBlock, Height: 850})
	gp := document.GroupPolicy{AllowSplit: true, Orphans: 2, Widows: 2}
	g := b.Add(document.NoParent, document.Node{ID: "jobs", Kind: document.KindGroup, Height: 500, Group: &gp})
	for _, id := range []string{"job-a", "job-b", "job-c", "job-d", "job-e"} {
		b.Add(g, document.Node{ID: id, Kind: document.KindGroupItem, Height: 100})
	}
	return b.Document()
}

func documentInput(t *testing.T, doc document.Document) []byte {
	t.Helper()
	data, err := document.Marshal(&doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return data
}

func quietLogger() *log.Logger { return log.New(&bytes.Buffer{}) }

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{[]string{"json"}, false},
		{[]string{"svg", "pdf"}, false},
		{nil, false},
		{[]string{"png"}, true},
		{[]string{"SVG"}, true},
	}
	for _, tt := range tests {
		err := ValidateFormats(tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
	}
}

func TestValidateSource(t *testing.T) {
	for _, s := range Sources {
		if err := ValidateSource(s); err != nil {
			t.Errorf("ValidateSource(%q) error = %v", s, err)
		}
	}
	if err := ValidateSource("docx"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("ValidateSource(docx) error = %v, want INVALID_INPUT", err)
	}
}

func TestValidatePreset(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"a4", false},
		{"letter", false},
		{"tabloid", true},
	}
	for _, tt := range tests {
		err := ValidatePreset(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePreset(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Input: []byte("{}")}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Source != SourceDocument {
		t.Errorf("Source = %q, want %q", opts.Source, SourceDocument)
	}
	if !reflect.DeepEqual(opts.Formats, DefaultFormats) {
		t.Errorf("Formats = %v, want %v", opts.Formats, DefaultFormats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}

	empty := Options{}
	if err := empty.ValidateAndSetDefaults(); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("empty input error = %v, want INVALID_INPUT", err)
	}
}

func TestExecute(t *testing.T) {
	doc := sampleDocument()
	r := NewRunner(nil, nil, quietLogger())

	res, err := r.Execute(context.Background(), Options{
		Input:   documentInput(t, doc),
		Formats: []string{"json", "svg", "pdf"},
		Plan:    true,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want, _ := compose.Compose(doc)
	if !reflect.DeepEqual(res.Composition.Pages, want.Pages) {
		t.Errorf("pages differ from a direct composition")
	}
	if len(res.Rendered.Pages) != len(want.Pages) {
		t.Errorf("rendered %d pages, want %d", len(res.Rendered.Pages), len(want.Pages))
	}
	for _, f := range []string{"json", "svg", "pdf"} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if res.Plan == nil || len(res.Plan.Operations) != len(want.Warnings) {
		t.Fatalf("plan = %+v, want one operation per warning (%d)", res.Plan, len(want.Warnings))
	}
	if res.Stats.Nodes != doc.Len() || res.Stats.Layout.Pages != len(want.Pages) {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.DocumentHash == "" {
		t.Error("DocumentHash not set")
	}
	if res.CacheInfo != (CacheInfo{}) {
		t.Errorf("null cache reported hits: %+v", res.CacheInfo)
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(cache.NewMemoryCache(time.Hour, time.Minute), nil, quietLogger())
	input := documentInput(t, sampleDocument())
	opts := func(refresh bool) Options {
		return Options{Input: input, Formats: []string{"json", "svg"}, Plan: true, Refresh: refresh}
	}

	first, err := r.Execute(ctx, opts(false))
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, opts(false))
	if err != nil {
		t.Fatal(err)
	}
	if want := (CacheInfo{ComposeHit: true, RenderHit: true, PlanHit: true}); second.CacheInfo != want {
		t.Errorf("CacheInfo = %+v, want %+v", second.CacheInfo, want)
	}
	if !reflect.DeepEqual(first.Composition, second.Composition) {
		t.Error("cached composition differs")
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs")
	}
	a, _ := json.Marshal(first.Plan)
	b, _ := json.Marshal(second.Plan)
	if !bytes.Equal(a, b) {
		t.Errorf("cached plan differs:\n%s\n%s", a, b)
	}

	third, err := r.Execute(ctx, opts(true))
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo != (CacheInfo{}) {
		t.Errorf("refresh run reported hits: %+v", third.CacheInfo)
	}
}

const htmlCanvas = `<main data-page="letter" data-zoom="2">
  <section data-id="summary" data-kind="root-block" data-height="400" data-meta-selected="true"></section>
  <section data-id="skills" data-kind="root-block" data-height="600"></section>
</main>`

func TestExecuteCanvas(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(0, 0)
	r := NewRunner(c, nil, quietLogger())

	opts := Options{Source: SourceCanvasHTML, Input: []byte(htmlCanvas), Preset: "a5"}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Document.Template.Name != "a5" {
		t.Errorf("template = %q, want preset override a5", res.Document.Template.Name)
	}
	if h := res.Document.Nodes[res.Document.IndexOf("skills")].Height; h != 300 {
		t.Errorf("skills height = %v, want 300 after zoom", h)
	}
	if n := res.Rendered.Pages[0].Find("summary"); n == nil || n.Meta != nil {
		t.Errorf("summary = %+v, want rendered without editor meta", n)
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LoadHit {
		t.Error("second extraction should hit the cache")
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quietLogger())

	bad := sampleDocument()
	bad.Nodes[0].Height = -1
	data, _ := document.Marshal(&bad)

	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"invalid document", Options{Input: data}, errs.ErrCodeInvalidDocument},
		{"malformed json", Options{Input: []byte("{")}, errs.ErrCodeInvalidDocument},
		{"malformed canvas", Options{Source: SourceCanvasJSON, Input: []byte("[")}, errs.ErrCodeInvalidCanvas},
		{"unknown format", Options{Input: data, Formats: []string{"docx"}}, errs.ErrCodeInvalidFormat},
		{"unknown preset", Options{Input: data, Preset: "tabloid"}, errs.ErrCodeInvalidTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.opts)
			if !errs.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestComposeBatch(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quietLogger())

	docs := make([]document.Document, 6)
	for i := range docs {
		b := document.NewBuilder(document.PageTemplate{Width: 800, Height: 1100, ContentPadding: 50})
		for j := 0; j <= i; j++ {
			b.Add(document.NoParent, document.Node{ID: string(rune('a' + j)), Kind: document.KindRootBlock, Height: 600})
		}
		docs[i] = b.Document()
	}

	results, err := r.ComposeBatch(ctx, docs, 2)
	if err != nil {
		t.Fatalf("ComposeBatch() error = %v", err)
	}
	for i, res := range results {
		if len(res.Pages) != i+1 {
			t.Errorf("document %d: %d pages, want %d", i, len(res.Pages), i+1)
		}
	}

	docs[3].Nodes[0].Kind = "sidebar"
	if _, err := r.ComposeBatch(ctx, docs, 0); !errs.Is(err, errs.ErrCodeInvalidDocument) {
		t.Errorf("ComposeBatch() error = %v, want INVALID_DOCUMENT", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu     sync.Mutex
	stages []observability.Stage
	hits   int
}

func (h *recordingHooks) OnStageComplete(_ context.Context, s observability.Stage, _ observability.StageSummary, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stages = append(h.stages, s)
}

func (h *recordingHooks) OnCacheHit(context.Context, observability.Stage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	defer observability.Reset()

	r := NewRunner(cache.NewMemoryCache(0, 0), nil, quietLogger())
	opts := Options{Input: documentInput(t, sampleDocument()), Plan: true}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	want := []observability.Stage{
		observability.StageExtract, observability.StageCompose, observability.StageRender, observability.StagePlan,
	}
	if !reflect.DeepEqual(h.stages, want) {
		t.Errorf("stages = %v, want %v", h.stages, want)
	}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if h.hits != 3 {
		t.Errorf("cache hits = %d, want 3 (compose, render, plan)", h.hits)
	}
}
