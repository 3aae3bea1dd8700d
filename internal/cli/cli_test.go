package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pagesetter/internal/config"
	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	"github.com/matzehuels/pagesetter/pkg/pipeline"
	"github.com/matzehuels/pagesetter/pkg/planner"
)

// =============================================================================
// Helpers
// =============================================================================

// isolate points config and cache lookups at a temp dir.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{"PAGE_PRESET", "ZOOM", "CACHE_BACKEND", "CACHE_DIR", "FORMATS"} {
		t.Setenv(config.EnvPrefix+k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeResume writes a document with an oversized photo and a job list that
// needs orphan control.
func writeResume(t *testing.T, dir string) string {
	t.Helper()
	b := document.NewBuilder(document.PageTemplate{Width: 800, Height: 1100, ContentPadding: 50})
	b.Add(document.NoParent, document.Node{ID: "photo", Kind: document.KindRootBlock, Height: 1400})
	b.Add(document.NoParent, document.Node{ID: "intro", Kind: document.KindRootBlock, Height: 850})
	gp := document.GroupPolicy{AllowSplit: true, Orphans: 2, Widows: 2}
	g := b.Add(document.NoParent, document.Node{ID: "jobs", Kind: document.KindGroup, Height: 500, Group: &gp})
	for _, id := range []string{"job-a", "job-b", "job-c", "job-d", "job-e"} {
		b.Add(g, document.Node{ID: id, Kind: document.KindGroupItem, Height: 100})
	}
	doc := b.Document()
	path := filepath.Join(dir, "resume.json")
	if err := document.WriteFile(&doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func readJSON[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return v
}

// =============================================================================
// Commands
// =============================================================================

func TestRootCommand(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	want := []string{"extract", "compose", "render", "plan", "diff", "apply", "tree", "cache", "serve", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing persistent flags")
	}
}

func TestExtractHTML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	canvas := filepath.Join(dir, "cv.html")
	html := `<main data-page="a5">
  <section data-id="summary" data-kind="root-block" data-height="400"></section>
  <section data-id="skills" data-kind="root-block" data-height="500"></section>
</main>`
	if err := os.WriteFile(canvas, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "cv.json")

	if _, err := run(t, "extract", canvas, "-o", output, "--no-cache"); err != nil {
		t.Fatalf("extract error = %v", err)
	}
	out, err := run(t, "compose", output, "--json", "--no-cache")
	if err != nil {
		t.Fatalf("compose error = %v", err)
	}
	res := readJSON[compose.Result](t, []byte(out))
	if len(res.Pages) != 2 {
		t.Errorf("pages = %d, want 2", len(res.Pages))
	}
}

func TestComposeTable(t *testing.T) {
	isolate(t)
	input := writeResume(t, t.TempDir())

	out, err := run(t, "compose", input, "--no-cache")
	if err != nil {
		t.Fatalf("compose error = %v", err)
	}
	for _, want := range []string{"photo", string(compose.WarnBlockOversized)} {
		if !strings.Contains(out, want) {
			t.Errorf("compose output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderFormats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeResume(t, dir)

	if _, err := run(t, "render", input, "-f", "json,svg", "--no-cache"); err != nil {
		t.Fatalf("render error = %v", err)
	}
	for _, name := range []string{"resume.pages.json", "resume.pages.svg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	pdf := filepath.Join(dir, "out", "resume.pdf")
	if _, err := run(t, "render", input, "-f", "pdf", "-o", pdf, "--no-cache"); err != nil {
		t.Fatalf("render pdf error = %v", err)
	}
	data, err := os.ReadFile(pdf)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("pdf output invalid: %v", err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	isolate(t)
	input := writeResume(t, t.TempDir())
	if _, err := run(t, "render", input, "-f", "docx", "--no-cache"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestPlanDiffApply(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeResume(t, dir)
	planPath := filepath.Join(dir, "plan.json")

	if _, err := run(t, "plan", input, "-o", planPath, "--no-cache"); err != nil {
		t.Fatalf("plan error = %v", err)
	}
	data, err := os.ReadFile(planPath)
	if err != nil {
		t.Fatal(err)
	}
	plan := readJSON[planner.Plan](t, data)
	if len(plan.Operations) == 0 {
		t.Fatal("plan has no operations")
	}

	statuses := func(doc string) map[planner.Status]int {
		out, err := run(t, "diff", doc, "--plan", planPath, "--json", "--no-cache")
		if err != nil {
			t.Fatalf("diff error = %v", err)
		}
		return planner.Summary(readJSON[[]planner.DiffEntry](t, []byte(out)))
	}
	if got := statuses(input); got[planner.StatusPending] != len(plan.Operations) {
		t.Errorf("before apply = %v, want all pending", got)
	}

	if _, err := run(t, "apply", input, "--plan", planPath, "--no-cache"); err != nil {
		t.Fatalf("apply error = %v", err)
	}
	fixed := filepath.Join(dir, "resume.fixed.json")
	if got := statuses(fixed); got[planner.StatusApplied] != len(plan.Operations) {
		t.Errorf("after apply = %v, want all applied", got)
	}
}

func TestApplyRequiresPlan(t *testing.T) {
	isolate(t)
	input := writeResume(t, t.TempDir())
	if _, err := run(t, "apply", input); err == nil {
		t.Error("expected an error without --plan")
	}
}

func TestTreeDOT(t *testing.T) {
	isolate(t)
	input := writeResume(t, t.TempDir())
	out, err := run(t, "tree", input, "--no-cache")
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	if !strings.Contains(out, "digraph") || !strings.Contains(out, "job-a") {
		t.Errorf("tree output = %q", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	isolate(t)
	cfg := writeConfig(t, "[page]\npreset = \"tabloid\"\n")
	input := writeResume(t, t.TempDir())
	if _, err := run(t, "--config", cfg, "compose", input); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}

// =============================================================================
// Helpers under test
// =============================================================================

func TestSourceFor(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want string
	}{
		{"html extension", "cv.html", "", pipeline.SourceCanvasHTML},
		{"htm extension", "CV.HTM", "", pipeline.SourceCanvasHTML},
		{"canvas extension", "cv.canvas.json", "{}", pipeline.SourceCanvasJSON},
		{"sniff html", "-", "  <main></main>", pipeline.SourceCanvasHTML},
		{"sniff document", "cv.json", `{"template":{},"blocks":[]}`, pipeline.SourceDocument},
		{"sniff canvas", "cv.json", `{"zoom":2,"nodes":[]}`, pipeline.SourceCanvasJSON},
		{"fallback", "cv.json", `{}`, pipeline.SourceDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceFor(tt.path, []byte(tt.data)); got != tt.want {
				t.Errorf("sourceFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default", "cv.json", "", []string{"json"}, map[string]string{"json": "cv.pages.json"}},
		{"stdin", "-", "", []string{"svg"}, map[string]string{"svg": "pagesetter.pages.svg"}},
		{"explicit single", "cv.json", "out/print.pdf", []string{"pdf"}, map[string]string{"pdf": "out/print.pdf"}},
		{"explicit base", "cv.json", "out/print", []string{"svg", "pdf"}, map[string]string{"svg": "out/print.svg", "pdf": "out/print.pdf"}},
		{"strips format extension", "cv.json", "out/print.svg", []string{"svg", "pdf"}, map[string]string{"svg": "out/print.svg", "pdf": "out/print.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestFilterOperations(t *testing.T) {
	ops := []planner.Operation{{ID: "a1b2c3"}, {ID: "a1ffff"}, {ID: "d4e5f6"}}
	tests := []struct {
		ids  []string
		want int
	}{
		{nil, 3},
		{[]string{"a1"}, 2},
		{[]string{"a1b2", "d4"}, 2},
		{[]string{"zz"}, 0},
		{[]string{""}, 0},
	}
	for _, tt := range tests {
		if got := filterOperations(ops, tt.ids); len(got) != tt.want {
			t.Errorf("filterOperations(%v) = %d ops, want %d", tt.ids, len(got), tt.want)
		}
	}
}

func TestServerBackend(t *testing.T) {
	tests := []struct {
		configured, flag, want string
	}{
		{"", "", "memory"},
		{"file", "", "memory"},
		{"redis", "", "redis"},
		{"file", "mongo", "mongo"},
	}
	for _, tt := range tests {
		if got := serverBackend(tt.configured, tt.flag); got != tt.want {
			t.Errorf("serverBackend(%q, %q) = %q, want %q", tt.configured, tt.flag, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	c := &CLI{Config: config.Default()}
	if got := c.parseFormats(""); len(got) != 1 || got[0] != "json" {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
	if got := c.parseFormats(" svg, ,pdf "); len(got) != 2 || got[0] != "svg" || got[1] != "pdf" {
		t.Errorf("parseFormats() = %v", got)
	}
}
