package sink

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/render"
)

// Two pages: "intro" alone, then the split "skills" container.
func sample(t *testing.T) (render.Rendered, compose.Result) {
	t.Helper()
	b := document.NewBuilder(document.PageTemplate{Width: 800, Height: 1100, ContentPadding: 50})
	b.Add(document.NoParent, document.Node{ID: "intro", Kind: document.KindRootBlock, Height: 700})
	s := b.Add(document.NoParent, document.Node{ID: "skills", Kind: document.KindRootBlock, Height: 640})
	b.Add(s, document.Node{ID: "skills-go", Kind: document.KindRootBlock, Height: 300})
	b.Add(s, document.Node{ID: "skills-<sql>", Kind: document.KindRootBlock, Height: 300})
	doc := b.Document()

	res, err := compose.Compose(doc)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	out, err := render.Render(res, doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out, res
}

func TestRenderJSON(t *testing.T) {
	out, res := sample(t)

	data, err := RenderJSON(out, WithJSONWarnings(res.Warnings))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var got jsonOutput
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if got.PageCount != 2 || len(got.Pages) != 2 {
		t.Errorf("PageCount = %d, pages = %d, want 2", got.PageCount, len(got.Pages))
	}
	if got.Template.Width != 800 {
		t.Errorf("Template.Width = %v, want 800", got.Template.Width)
	}
	n := got.Pages[1].Find("skills-go")
	if n == nil || n.Y != out.Pages[1].Find("skills-go").Y {
		t.Errorf("skills-go did not survive the round trip: %+v", n)
	}
}

func TestRenderJSONIndent(t *testing.T) {
	out, _ := sample(t)
	flat, _ := RenderJSON(out)
	pretty, _ := RenderJSON(out, WithIndent())
	if bytes.Contains(flat, []byte("\n  ")) || !bytes.Contains(pretty, []byte("\n  ")) {
		t.Error("WithIndent() did not control indentation")
	}
}

func TestRenderSVG(t *testing.T) {
	out, _ := sample(t)
	svg := string(RenderSVG(out, WithLabels(), WithMargins(), WithGap(10)))

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 820.0 2230.0"`,
		`<g id="page-0" transform="translate(10.00,10.00)">`,
		`<g id="page-1" transform="translate(10.00,1120.00)">`,
		`data-id="intro"`,
		`class="node split" data-id="skills"`,
		`data-id="skills-&lt;sql&gt;"`,
		`class="margin"`,
		`<text class="label"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("svg not closed")
	}
}

func TestRenderPDF(t *testing.T) {
	out, _ := sample(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a, err := RenderPDF(out, WithPDFTitle("CV"), WithPDFLabels(), WithCreationDate(at))
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if !bytes.HasPrefix(a, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", a[:min(len(a), 8)])
	}
	b, _ := RenderPDF(out, WithPDFTitle("CV"), WithPDFLabels(), WithCreationDate(at))
	if !bytes.Equal(a, b) {
		t.Error("RenderPDF() is not reproducible with a fixed creation date")
	}
}

func TestWrite(t *testing.T) {
	out, _ := sample(t)

	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, format, out); err != nil {
				t.Fatalf("Write(%s) error: %v", format, err)
			}
			if buf.Len() == 0 {
				t.Errorf("Write(%s) produced no output", format)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		err := Write(&bytes.Buffer{}, "docx", out)
		if !errs.Is(err, errs.ErrCodeInvalidFormat) {
			t.Errorf("Write(docx) error = %v, want %s", err, errs.ErrCodeInvalidFormat)
		}
	})
}

func TestExtension(t *testing.T) {
	if got := Extension(FormatPDF); got != ".pdf" {
		t.Errorf("Extension(pdf) = %q", got)
	}
}
