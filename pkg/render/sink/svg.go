package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/pagesetter/pkg/render"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	gap     float64
	labels  bool
	margins bool
}

// WithGap sets the vertical space between stacked pages (default 32).
func WithGap(gap float64) SVGOption { return func(r *svgRenderer) { r.gap = gap } }

// WithLabels writes each node's id in its top-left corner.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithMargins outlines each page's content box.
func WithMargins() SVGOption { return func(r *svgRenderer) { r.margins = true } }

// RenderSVG draws a wireframe of every page, stacked top to bottom.
func RenderSVG(out render.Rendered, opts ...SVGOption) []byte {
	r := svgRenderer{gap: 32}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := r.dimensions(out)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	buf.WriteString(`  <style>
    .page { fill: #ffffff; stroke: #9ca3af; }
    .margin { fill: none; stroke: #e5e7eb; stroke-dasharray: 4 4; }
    .node { fill: #2563eb; fill-opacity: 0.06; stroke: #2563eb; }
    .node.split { stroke-dasharray: 6 3; }
    .label { font: 10px sans-serif; fill: #1f2937; }
  </style>` + "\n")

	top := r.gap
	for i := range out.Pages {
		p := &out.Pages[i]
		r.renderPage(&buf, p, r.gap, top)
		top += p.Height + r.gap
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) dimensions(out render.Rendered) (float64, float64) {
	w, h := out.Template.Width, r.gap
	for _, p := range out.Pages {
		w = max(w, p.Width)
		h += p.Height + r.gap
	}
	return w + 2*r.gap, h
}

func (r svgRenderer) renderPage(buf *bytes.Buffer, p *render.Page, left, top float64) {
	fill := ""
	if p.Background != "" {
		fill = fmt.Sprintf(` style="fill: %s"`, html.EscapeString(p.Background))
	}
	fmt.Fprintf(buf, `  <g id="page-%d" transform="translate(%.2f,%.2f)">`+"\n", p.Index, left, top)
	fmt.Fprintf(buf, `    <rect class="page" x="0" y="0" width="%.2f" height="%.2f"%s/>`+"\n", p.Width, p.Height, fill)
	if r.margins {
		fmt.Fprintf(buf, `    <rect class="margin" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
			p.Padding, p.ContentTop, p.Width-2*p.Padding, p.Height-p.ContentTop-p.Padding-p.FooterHeight)
	}
	p.Walk(func(n *render.Node, _ int) {
		class := "node"
		if n.Fragment || n.Continued {
			class += " split"
		}
		fmt.Fprintf(buf, `    <rect class="%s" data-id="%s" data-kind="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
			class, html.EscapeString(n.ID), n.Kind, n.X, n.Y, n.Width, n.Height)
		if r.labels {
			fmt.Fprintf(buf, `    <text class="label" x="%.2f" y="%.2f">%s</text>`+"\n",
				n.X+3, n.Y+11, html.EscapeString(n.ID))
		}
	})
	buf.WriteString("  </g>\n")
}
