package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// Options control extraction.
type Options struct {
	// Zoom overrides the canvas zoom. Zero uses the canvas's own zoom,
	// or 1 when the canvas does not know it.
	Zoom float64
	// Template overrides the canvas page template when non-zero.
	Template *document.PageTemplate
}

// Extract builds a validated document from c. Every length is divided by
// the effective zoom.
func Extract(c Canvas, opts Options) (document.Document, error) {
	zoom := opts.Zoom
	if zoom == 0 {
		zoom = c.Zoom()
	}
	if zoom == 0 {
		zoom = 1
	}
	if zoom < 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return document.Document{}, errs.New(errs.ErrCodeInvalidCanvas, "zoom must be a positive number, got %v", zoom)
	}

	tpl := c.Template()
	if opts.Template != nil {
		tpl = *opts.Template
	}
	tpl, err := document.ResolveTemplate(tpl)
	if err != nil {
		return document.Document{}, err
	}

	b := document.NewBuilder(tpl)
	var add func(parent int, n CanvasNode) error
	add = func(parent int, n CanvasNode) error {
		node, err := project(n, zoom)
		if err != nil {
			return err
		}
		i := b.Add(parent, node)
		for _, c := range n.Children() {
			if err := add(i, c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range c.Roots() {
		if err := add(document.NoParent, r); err != nil {
			return document.Document{}, err
		}
	}

	doc := b.Document()
	if err := doc.Validate(); err != nil {
		return document.Document{}, err
	}
	return doc, nil
}

func project(n CanvasNode, zoom float64) (document.Node, error) {
	r := n.Bounds()
	kind := document.Kind(strings.TrimSpace(n.Kind()))
	if kind == "" {
		kind = document.KindPlain
	}
	node := document.Node{
		ID:     n.ID(),
		Kind:   kind,
		Height: r.Height / zoom,
		X:      r.X / zoom,
		Width:  r.Width / zoom,
		Meta:   n.Meta(),
		Policy: document.DefaultPolicy(),
	}

	if v, ok := n.Attr(AttrBreakBefore); ok {
		node.Policy.BreakBefore = document.BreakBefore(strings.TrimSpace(v)).Normalize()
	}
	if v, ok := n.Attr(AttrBreakAfter); ok {
		node.Policy.BreakAfter = document.BreakAfter(strings.TrimSpace(v)).Normalize()
	}
	if v, ok := n.Attr(AttrKeepWithNext); ok {
		keep, err := parseBool(node.ID, AttrKeepWithNext, v)
		if err != nil {
			return node, err
		}
		node.Policy.KeepWithNext = keep
	}

	if kind != document.KindGroup {
		return node, nil
	}
	gp := document.DefaultGroupPolicy()
	if v, ok := n.Attr(AttrAllowItemSplit); ok {
		split, err := parseBool(node.ID, AttrAllowItemSplit, v)
		if err != nil {
			return node, err
		}
		gp.AllowSplit = split
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{{AttrOrphans, &gp.Orphans}, {AttrWidows, &gp.Widows}} {
		if v, ok := n.Attr(f.name); ok {
			count, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || count < 0 {
				return node, errs.New(errs.ErrCodeInvalidCanvas, "node %q: %s must be a non-negative integer, got %q", node.ID, f.name, v)
			}
			*f.dst = count
		}
	}
	node.Group = &gp
	return node, nil
}

func parseBool(id, name, v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, errs.New(errs.ErrCodeInvalidCanvas, "node %q: %s must be true or false, got %q", id, name, v)
	}
	return b, nil
}
