package render

import (
	"math"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// Node is a block positioned on a rendered page. Coordinates are
// page-absolute CSS pixels.
type Node struct {
	ID     string         `json:"id"`
	Kind   document.Kind  `json:"kind"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Meta   map[string]any `json:"meta,omitempty"`

	// Fragment marks a container placed on this page without all of its
	// content. Continued marks a container recreated to hold descendants
	// whose own placement started on an earlier page.
	Fragment  bool `json:"fragment,omitempty"`
	Continued bool `json:"continued,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// Bottom returns the node's lower edge.
func (n *Node) Bottom() float64 { return n.Y + n.Height }

// Page is one rendered page instantiated from the document's template.
type Page struct {
	Index        int     `json:"index"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Padding      float64 `json:"padding"`
	HeaderHeight float64 `json:"headerHeight,omitempty"`
	FooterHeight float64 `json:"footerHeight,omitempty"`
	ContentTop   float64 `json:"contentTop"`
	Background   string  `json:"background,omitempty"`
	Nodes        []*Node `json:"nodes"`
}

// Walk visits the page's nodes depth-first in paint order.
func (p *Page) Walk(fn func(n *Node, depth int)) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, n := range p.Nodes {
		visit(n, 0)
	}
}

// Find returns the node with the given id, or nil.
func (p *Page) Find(id string) *Node {
	var found *Node
	p.Walk(func(n *Node, _ int) {
		if found == nil && n.ID == id {
			found = n
		}
	})
	return found
}

// Rendered is the output of [Render].
type Rendered struct {
	Template document.PageTemplate `json:"template"`
	Pages    []Page                `json:"pages"`
}

// Locate returns the page index and the node for id. Placed nodes win over
// continued copies. It returns -1 and nil when id is on no page.
func (r *Rendered) Locate(id string) (int, *Node) {
	page, node := -1, (*Node)(nil)
	for i := range r.Pages {
		if n := r.Pages[i].Find(id); n != nil && !n.Continued {
			return r.Pages[i].Index, n
		} else if n != nil && node == nil {
			page, node = r.Pages[i].Index, n
		}
	}
	return page, node
}

// Render clones the placed blocks of res out of doc, page by page.
//
// It fails with [errs.ErrCodeInvalidInput] when a placement names a block
// doc does not contain, which means res was computed from another document.
func Render(res compose.Result, doc document.Document) (Rendered, error) {
	r := &renderer{doc: &doc, index: doc.Index(), dropped: dropped(&doc)}
	r.boxes = r.horizontal()

	out := Rendered{Template: doc.Template, Pages: make([]Page, 0, len(res.Pages))}
	for _, p := range res.Pages {
		page, err := r.page(p)
		if err != nil {
			return Rendered{}, err
		}
		out.Pages = append(out.Pages, page)
	}
	return out, nil
}

// box is a node's horizontal extent.
type box struct{ x, w float64 }

type renderer struct {
	doc     *document.Document
	index   map[string]int
	dropped []bool
	boxes   []box
}

// horizontal resolves every node's x and width. A node without a measured
// width spans its parent; roots without one span the content box.
func (r *renderer) horizontal() []box {
	t := r.doc.Template
	boxes := make([]box, len(r.doc.Nodes))
	r.doc.Walk(func(i, _ int) bool {
		n := &r.doc.Nodes[i]
		b := box{x: t.ContentPadding, w: t.UsableWidth()}
		if n.Parent != document.NoParent {
			b = boxes[n.Parent]
		}
		if n.Width > 0 {
			b = box{x: t.ContentPadding + n.X, w: n.Width}
		}
		boxes[i] = b
		return true
	})
	return boxes
}

func (r *renderer) page(p compose.Page) (Page, error) {
	t := r.doc.Template
	pg := Page{
		Index:        p.Index,
		Width:        t.Width,
		Height:       t.Height,
		Padding:      t.ContentPadding,
		HeaderHeight: t.HeaderHeight,
		FooterHeight: t.FooterHeight,
		ContentTop:   t.ContentTop(),
		Background:   t.Background,
		Nodes:        []*Node{},
	}

	onPage := make(map[int]*Node)
	for _, pl := range p.Placements {
		i, ok := r.index[pl.BlockID]
		if !ok {
			return Page{}, errs.New(errs.ErrCodeInvalidInput,
				"page %d places unknown block %q", p.Index, pl.BlockID)
		}
		if r.dropped[i] || onPage[i] != nil {
			continue
		}
		y := pg.ContentTop + pl.OffsetInPage
		var n *Node
		if pl.Fragment {
			n = r.shallow(i, y, pl.Height)
			n.Fragment = true
			onPage[i] = n
		} else {
			n = r.subtree(i, y, onPage)
		}
		r.attach(&pg, i, n, onPage)
	}

	for _, n := range pg.Nodes {
		stretch(n)
	}
	return pg, nil
}

func (r *renderer) shallow(i int, y, h float64) *Node {
	src := &r.doc.Nodes[i]
	return &Node{
		ID:     src.ID,
		Kind:   src.Kind,
		X:      r.boxes[i].x,
		Y:      y,
		Width:  r.boxes[i].w,
		Height: h,
		Meta:   stripMeta(src.Meta),
	}
}

// subtree clones node i and its kept descendants, children stacked below
// the node's chrome.
func (r *renderer) subtree(i int, y float64, onPage map[int]*Node) *Node {
	n := r.shallow(i, y, r.doc.Extent(i))
	onPage[i] = n
	cursor := y + r.doc.Chrome(i)
	for _, c := range r.doc.Nodes[i].Children {
		if !r.dropped[c] {
			n.Children = append(n.Children, r.subtree(c, cursor, onPage))
		}
		cursor += r.doc.Extent(c)
	}
	return n
}

// attach hangs n under its nearest ancestor on the page, recreating the
// missing ancestors as continued nodes.
func (r *renderer) attach(pg *Page, i int, n *Node, onPage map[int]*Node) {
	parent := r.doc.Nodes[i].Parent
	if parent == document.NoParent {
		pg.Nodes = append(pg.Nodes, n)
		return
	}
	if pn := onPage[parent]; pn != nil {
		pn.Children = append(pn.Children, n)
		return
	}
	pn := r.shallow(parent, n.Y, 0)
	pn.Continued = true
	pn.Children = []*Node{n}
	onPage[parent] = pn
	r.attach(pg, parent, pn, onPage)
}

// stretch grows fragment and continued containers over their children.
func stretch(n *Node) {
	for _, c := range n.Children {
		stretch(c)
	}
	if !n.Fragment && !n.Continued {
		return
	}
	top, bottom := n.Y, n.Bottom()
	for _, c := range n.Children {
		top = math.Min(top, c.Y)
		bottom = math.Max(bottom, c.Bottom())
	}
	n.Y, n.Height = top, bottom-top
}
