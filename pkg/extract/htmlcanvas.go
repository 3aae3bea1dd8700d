package extract

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// HTML canvas attributes. Elements without data-id are transparent: their
// identified descendants attach to the nearest identified ancestor.
const (
	htmlAttrID         = "data-id"
	htmlAttrKind       = "data-kind"
	htmlAttrPageWidth  = "data-page-width"
	htmlAttrPageHeight = "data-page-height"
	htmlAttrPadding    = "data-page-padding"
	htmlAttrPreset     = "data-page"
	htmlAttrZoom       = "data-zoom"
	htmlMetaPrefix     = "data-meta-"
)

var htmlGeometry = map[string]string{
	"data-x":      "x",
	"data-y":      "y",
	"data-width":  "width",
	"data-height": "height",
}

var htmlPolicy = map[string]string{
	"data-break-before":     AttrBreakBefore,
	"data-break-after":      AttrBreakAfter,
	"data-keep-with-next":   AttrKeepWithNext,
	"data-allow-item-split": AttrAllowItemSplit,
	"data-orphans":          AttrOrphans,
	"data-widows":           AttrWidows,
}

// HTMLCanvas is a canvas read from rendered HTML whose blocks carry their
// measured geometry and policy as data-* attributes:
//
//	<main data-page="a4" data-zoom="1.5">
//	  <section data-id="experience" data-kind="group" data-height="900" data-orphans="2">
//	    <article data-id="job-1" data-kind="group-item" data-height="300">...</article>
//	  </section>
//	</main>
type HTMLCanvas struct {
	page  document.PageTemplate
	zoom  float64
	roots []*HTMLNode
}

// HTMLNode is one identified element of an HTMLCanvas.
type HTMLNode struct {
	id       string
	kind     string
	bounds   Rect
	attrs    map[string]string
	meta     map[string]any
	children []*HTMLNode
}

func (c *HTMLCanvas) Template() document.PageTemplate { return c.page }
func (c *HTMLCanvas) Zoom() float64                   { return c.zoom }

func (c *HTMLCanvas) Roots() []CanvasNode {
	out := make([]CanvasNode, len(c.roots))
	for i, n := range c.roots {
		out[i] = n
	}
	return out
}

func (n *HTMLNode) ID() string   { return n.id }
func (n *HTMLNode) Kind() string { return n.kind }
func (n *HTMLNode) Bounds() Rect { return n.bounds }

func (n *HTMLNode) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *HTMLNode) Meta() map[string]any {
	if len(n.meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(n.meta))
	for k, v := range n.meta {
		out[k] = v
	}
	return out
}

func (n *HTMLNode) Children() []CanvasNode {
	out := make([]CanvasNode, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// ReadHTMLCanvas parses an HTML canvas.
func ReadHTMLCanvas(r io.Reader) (*HTMLCanvas, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCanvas, err, "parse html")
	}

	c := &HTMLCanvas{}
	var walkErr error
	var walk func(n *html.Node, parent *HTMLNode)
	walk = func(n *html.Node, parent *HTMLNode) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "template":
				return
			}
			if err := c.readPage(n); err != nil {
				walkErr = err
				return
			}
			if id, ok := attr(n, htmlAttrID); ok {
				node, err := readHTMLNode(n, id)
				if err != nil {
					walkErr = err
					return
				}
				if parent == nil {
					c.roots = append(c.roots, node)
				} else {
					parent.children = append(parent.children, node)
				}
				parent = node
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch, parent)
		}
	}
	walk(doc, nil)
	if walkErr != nil {
		return nil, walkErr
	}
	return c, nil
}

// ReadHTMLCanvasFile parses an HTML canvas from path.
func ReadHTMLCanvasFile(path string) (*HTMLCanvas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadHTMLCanvas(f)
}

// readPage picks up page settings from the first element declaring them.
func (c *HTMLCanvas) readPage(n *html.Node) error {
	if v, ok := attr(n, htmlAttrPreset); ok && c.page.Name == "" {
		c.page.Name = strings.TrimSpace(v)
	}
	for name, dst := range map[string]*float64{
		htmlAttrPageWidth:  &c.page.Width,
		htmlAttrPageHeight: &c.page.Height,
		htmlAttrPadding:    &c.page.ContentPadding,
		htmlAttrZoom:       &c.zoom,
	} {
		v, ok := attr(n, name)
		if !ok || *dst != 0 {
			continue
		}
		f, err := parseLength(v)
		if err != nil {
			return errs.New(errs.ErrCodeInvalidCanvas, "%s: %v", name, err)
		}
		*dst = f
	}
	return nil
}

func readHTMLNode(n *html.Node, id string) (*HTMLNode, error) {
	node := &HTMLNode{id: id, attrs: make(map[string]string)}
	node.kind, _ = attr(n, htmlAttrKind)

	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if field, ok := htmlGeometry[key]; ok {
			f, err := parseLength(a.Val)
			if err != nil {
				return nil, errs.New(errs.ErrCodeInvalidCanvas, "node %q: %s: %v", id, key, err)
			}
			switch field {
			case "x":
				node.bounds.X = f
			case "y":
				node.bounds.Y = f
			case "width":
				node.bounds.Width = f
			case "height":
				node.bounds.Height = f
			}
			continue
		}
		if name, ok := htmlPolicy[key]; ok {
			node.attrs[name] = a.Val
			continue
		}
		if name, ok := strings.CutPrefix(key, htmlMetaPrefix); ok && name != "" {
			if node.meta == nil {
				node.meta = make(map[string]any)
			}
			node.meta[name] = metaValue(a.Val)
		}
	}
	return node, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// parseLength accepts plain numbers and px values.
func parseLength(v string) (float64, error) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	return strconv.ParseFloat(v, 64)
}

// metaValue keeps booleans typed so authoring flags survive as flags.
func metaValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}
