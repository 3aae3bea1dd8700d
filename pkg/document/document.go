package document

import (
	"maps"
	"slices"
)

// =============================================================================
// Kinds
// =============================================================================

// Kind is the closed set of node variants.
type Kind string

const (
	KindRootBlock Kind = "root-block"
	KindGroup     Kind = "group"
	KindGroupItem Kind = "group-item"
	KindPlain     Kind = "plain"
)

// Kinds lists every valid kind in a stable order.
var Kinds = []Kind{KindRootBlock, KindGroup, KindGroupItem, KindPlain}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool { return slices.Contains(Kinds, k) }

// Paginatable reports whether nodes of this kind are break candidates.
func (k Kind) Paginatable() bool { return k != KindPlain && k.Valid() }

// =============================================================================
// Node
// =============================================================================

// NoParent is the Parent value of top-level nodes.
const NoParent = -1

// Node is one block of the content tree. Relations are arena indices.
type Node struct {
	ID     string         `json:"id" bson:"id"`
	Kind   Kind           `json:"kind" bson:"kind"`
	Height float64        `json:"height" bson:"height"`
	X      float64        `json:"x,omitempty" bson:"x,omitempty"`
	Width  float64        `json:"width,omitempty" bson:"width,omitempty"`
	Policy Policy         `json:"policy" bson:"policy"`
	Group  *GroupPolicy   `json:"group,omitempty" bson:"group,omitempty"` // groups only
	Meta   map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`

	Parent   int   `json:"parent" bson:"parent"`
	Children []int `json:"children,omitempty" bson:"children,omitempty"`
}

// GroupPolicy returns the node's group policy, falling back to
// [DefaultGroupPolicy] when none was declared.
func (n *Node) GroupPolicy() GroupPolicy {
	if n.Group != nil {
		return *n.Group
	}
	return DefaultGroupPolicy()
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// =============================================================================
// Document
// =============================================================================

// Document is an immutable snapshot of a content tree plus its page template.
type Document struct {
	Template PageTemplate `json:"template" bson:"template"`
	Nodes    []Node       `json:"nodes" bson:"nodes"`
	Roots    []int        `json:"roots" bson:"roots"`
}

// Len returns the number of nodes.
func (d *Document) Len() int { return len(d.Nodes) }

// IndexOf returns the arena index of the node with the given id, or -1.
func (d *Document) IndexOf(id string) int {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Index returns a fresh id → arena index map.
func (d *Document) Index() map[string]int {
	idx := make(map[string]int, len(d.Nodes))
	for i := range d.Nodes {
		idx[d.Nodes[i].ID] = i
	}
	return idx
}

// Walk visits nodes depth-first in document order. Returning false from fn
// skips the node's subtree.
func (d *Document) Walk(fn func(i, depth int) bool) {
	var visit func(i, depth int)
	visit = func(i, depth int) {
		if !fn(i, depth) {
			return
		}
		for _, c := range d.Nodes[i].Children {
			visit(c, depth+1)
		}
	}
	for _, r := range d.Roots {
		visit(r, 0)
	}
}

// ContentHeight returns the sum of the extents of node i's children.
func (d *Document) ContentHeight(i int) float64 {
	var sum float64
	for _, c := range d.Nodes[i].Children {
		sum += d.Extent(c)
	}
	return sum
}

// Extent returns the height node i occupies: its measured height, or the
// extent of its children when that is larger.
func (d *Document) Extent(i int) float64 {
	if d.Nodes[i].IsLeaf() {
		return d.Nodes[i].Height
	}
	return max(d.Nodes[i].Height, d.ContentHeight(i))
}

// Chrome returns the part of node i's height not covered by its children.
func (d *Document) Chrome(i int) float64 {
	if d.Nodes[i].IsLeaf() {
		return 0
	}
	return max(0, d.Nodes[i].Height-d.ContentHeight(i))
}

// Clone returns a deep copy, safe to mutate without affecting d.
func (d *Document) Clone() Document {
	out := Document{
		Template: d.Template,
		Nodes:    make([]Node, len(d.Nodes)),
		Roots:    slices.Clone(d.Roots),
	}
	for i, n := range d.Nodes {
		n.Children = slices.Clone(n.Children)
		n.Meta = maps.Clone(n.Meta)
		if n.Group != nil {
			g := *n.Group
			n.Group = &g
		}
		out.Nodes[i] = n
	}
	return out
}

// =============================================================================
// Builder
// =============================================================================

// Builder assembles a Document in document order.
type Builder struct {
	doc Document
}

// NewBuilder starts a document on the given template.
func NewBuilder(t PageTemplate) *Builder {
	return &Builder{doc: Document{Template: t}}
}

// Add appends n as the last child of parent (or as a root when parent is
// [NoParent]) and returns its arena index.
func (b *Builder) Add(parent int, n Node) int {
	i := len(b.doc.Nodes)
	n.Parent = parent
	n.Children = nil
	b.doc.Nodes = append(b.doc.Nodes, n)
	if parent == NoParent {
		b.doc.Roots = append(b.doc.Roots, i)
	} else {
		b.doc.Nodes[parent].Children = append(b.doc.Nodes[parent].Children, i)
	}
	return i
}

// Document returns the assembled snapshot. The builder must not be reused.
func (b *Builder) Document() Document { return b.doc }
