package planner

import "github.com/matzehuels/pagesetter/pkg/document"

// NodeView is the planner's read-only view of a node. Props holds the
// current value of every prop the node's kind recognizes, defaults included.
type NodeView struct {
	ID    string         `json:"id"`
	Kind  document.Kind  `json:"kind"`
	Props map[string]any `json:"props"`
}

// Context is the node lookup the planner reads through.
type Context interface {
	GetNode(id string) (NodeView, bool)
	GetParentOf(id string) (string, bool)
	ResolveGroupOwner(groupID string) (string, bool)
}

// DocumentContext serves a Context from a document snapshot.
type DocumentContext struct {
	doc   *document.Document
	index map[string]int
}

// NewDocumentContext indexes doc. The document must not change while the
// context is in use.
func NewDocumentContext(doc *document.Document) *DocumentContext {
	return &DocumentContext{doc: doc, index: doc.Index()}
}

// GetNode returns the view of node id.
func (c *DocumentContext) GetNode(id string) (NodeView, bool) {
	i, ok := c.index[id]
	if !ok {
		return NodeView{}, false
	}
	n := &c.doc.Nodes[i]
	v := NodeView{ID: n.ID, Kind: n.Kind, Props: make(map[string]any)}
	p := n.Policy.Normalize()
	for _, prop := range capabilities[n.Kind] {
		switch prop {
		case PropBreakBefore:
			v.Props[prop] = string(p.BreakBefore)
		case PropBreakAfter:
			v.Props[prop] = string(p.BreakAfter)
		case PropKeepWithNext:
			v.Props[prop] = p.KeepWithNext
		case PropAllowItemSplit:
			v.Props[prop] = n.GroupPolicy().AllowSplit
		case PropOrphans:
			v.Props[prop] = n.GroupPolicy().Orphans
		case PropWidows:
			v.Props[prop] = n.GroupPolicy().Widows
		}
	}
	return v, true
}

// GetParentOf returns the id of id's parent.
func (c *DocumentContext) GetParentOf(id string) (string, bool) {
	i, ok := c.index[id]
	if !ok {
		return "", false
	}
	p := c.doc.Nodes[i].Parent
	if p == document.NoParent {
		return "", false
	}
	return c.doc.Nodes[p].ID, true
}

// ResolveGroupOwner returns the group node that owns groupID: the node
// itself when it is a group, otherwise its nearest group ancestor.
func (c *DocumentContext) ResolveGroupOwner(groupID string) (string, bool) {
	i, ok := c.index[groupID]
	if !ok {
		return "", false
	}
	for ; i != document.NoParent; i = c.doc.Nodes[i].Parent {
		if c.doc.Nodes[i].Kind == document.KindGroup {
			return c.doc.Nodes[i].ID, true
		}
	}
	return "", false
}
