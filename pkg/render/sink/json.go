package sink

import (
	"encoding/json"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	"github.com/matzehuels/pagesetter/pkg/render"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent   bool
	warnings []compose.Warning
}

// WithIndent pretty-prints the output.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// WithJSONWarnings embeds the composition warnings next to the pages.
func WithJSONWarnings(ws []compose.Warning) JSONOption {
	return func(r *jsonRenderer) { r.warnings = ws }
}

type jsonOutput struct {
	PageCount int                   `json:"pageCount"`
	Template  document.PageTemplate `json:"template"`
	Pages     []render.Page         `json:"pages"`
	Warnings  []compose.Warning     `json:"warnings,omitempty"`
}

// RenderJSON encodes the rendered pages. The output embeds the page count
// so consumers need not walk the tree to learn it.
func RenderJSON(out render.Rendered, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	doc := jsonOutput{
		PageCount: len(out.Pages),
		Template:  out.Template,
		Pages:     out.Pages,
		Warnings:  r.warnings,
	}
	if r.indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}
