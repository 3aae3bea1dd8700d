package treeview

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
)

// Options configures [ToDOT].
type Options struct {
	// Result tints blocks by page. Nil draws the bare tree.
	Result *compose.Result
	// Detailed adds height, policy and meta lines to labels.
	Detailed bool
}

// pagePalette cycles across pages.
var pagePalette = []string{"#dbeafe", "#dcfce7", "#fef9c3", "#fce7f3", "#ede9fe", "#ffedd5"}

// PageColor returns the fill colour used for page i.
func PageColor(i int) string { return pagePalette[i%len(pagePalette)] }

// ToDOT converts the document tree to Graphviz DOT.
func ToDOT(doc document.Document, opts Options) string {
	pages := map[string]int{}
	warned := map[string]bool{}
	if opts.Result != nil {
		for _, p := range opts.Result.Pages {
			for _, pl := range p.Placements {
				if _, ok := pages[pl.BlockID]; !ok {
					pages[pl.BlockID] = p.Index
				}
			}
		}
		for _, w := range opts.Result.Warnings {
			warned[w.Target()] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	doc.Walk(func(i, _ int) bool {
		n := &doc.Nodes[i]
		page, placed := pages[n.ID]
		label := fmtLabel(&doc, i, opts.Detailed)
		if placed {
			label += fmt.Sprintf("\np%d", page+1)
		}
		attrs := fmtAttrs(n, label, page, placed, warned[n.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
		return true
	})

	buf.WriteString("\n")
	doc.Walk(func(i, _ int) bool {
		for _, c := range doc.Nodes[i].Children {
			fmt.Fprintf(&buf, "  %q -> %q;\n", doc.Nodes[i].ID, doc.Nodes[c].ID)
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(doc *document.Document, i int, detailed bool) string {
	n := &doc.Nodes[i]
	if !detailed {
		return n.ID
	}

	parts := []string{string(n.Kind), fmt.Sprintf("h: %.0f", doc.Extent(i))}
	if p := n.Policy.Normalize(); p != document.DefaultPolicy() {
		parts = append(parts, fmt.Sprintf("%s/%s keep=%t", p.BreakBefore, p.BreakAfter, p.KeepWithNext))
	}
	if n.Kind == document.KindGroup {
		gp := n.GroupPolicy()
		parts = append(parts, fmt.Sprintf("split=%t o=%d w=%d", gp.AllowSplit, gp.Orphans, gp.Widows))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *document.Node, label string, page int, placed, warned bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	style := "rounded,filled"
	switch n.Kind {
	case document.KindGroup:
		attrs = append(attrs, "shape=box3d")
		style = "filled"
	case document.KindPlain:
		style = "rounded,filled,dashed"
		attrs = append(attrs, "fontcolor=\"#6b7280\"")
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", style))
	if placed {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", PageColor(page)))
	}
	if warned {
		attrs = append(attrs, "color=\"#dc2626\"", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
