package compose

import "github.com/matzehuels/pagesetter/pkg/document"

// piece is one placement inside a unit, offset from the unit's top.
type piece struct {
	node     int
	offset   float64
	height   float64
	fragment bool
}

// unit is the smallest thing the pager moves between pages.
type unit struct {
	pos    int // stream position
	height float64
	before document.BreakBefore
	after  document.BreakAfter
	keep   bool
	pieces []piece

	owner int         // node reported on overflow, -1 for spacers
	warn  WarningKind // warning emitted on overflow

	group int // split group this unit is an item of, or -1
	item  int // index within group
}

func (u *unit) isItemOf(g int) bool { return g >= 0 && u.group == g }

// groupInfo describes a split group in the stream.
type groupInfo struct {
	items   int // number of item units
	lastPos int // stream position of the last item
	policy  document.GroupPolicy
}

type flattener struct {
	doc    *document.Document
	units  []unit
	groups map[int]*groupInfo
}

func flatten(doc *document.Document) ([]unit, map[int]*groupInfo) {
	f := &flattener{doc: doc, groups: make(map[int]*groupInfo)}
	for _, r := range doc.Roots {
		f.node(r, -1, len(f.units))
	}
	f.hoistBreaks()
	return f.units, f.groups
}

// hoistBreaks moves a forced break in front of the spacers glued to the
// unit that carries it, so they open the new page with their content.
func (f *flattener) hoistBreaks() {
	for i := len(f.units) - 2; i >= 0; i-- {
		s, next := &f.units[i], &f.units[i+1]
		if s.owner >= 0 || !s.keep || s.after == document.BreakAfterPage || next.before != document.BreakBeforePage {
			continue
		}
		s.before = document.BreakBeforePage
		next.before = document.BreakBeforeAuto
	}
}

// node emits the units of subtree i. group is the split group whose items
// may appear in this subtree through plain wrappers; floor is the first
// unit emitted for i's parent.
func (f *flattener) node(i, group, floor int) {
	start := len(f.units)
	n := &f.doc.Nodes[i]

	switch n.Kind {
	case document.KindPlain:
		// Spacers travel with the content after them; a trailing leaf
		// spacer travels with the content before it instead.
		h := f.chromeOrHeight(i)
		trailing := n.IsLeaf() && f.isLastSibling(i)
		f.emit(unit{height: h, keep: !trailing, owner: -1, group: -1, item: -1,
			pieces: []piece{{node: i, height: h, fragment: !n.IsLeaf()}}})
		if trailing && start > floor {
			f.units[start-1].keep = true
		}
		for _, c := range n.Children {
			f.node(c, group, start)
		}

	case document.KindGroupItem:
		u := f.atomic(i, WarnBlockOversized)
		if g := f.groups[group]; g != nil {
			u.group, u.item = group, g.items
			g.items++
		}
		f.emit(u)
		if g := f.groups[group]; g != nil {
			g.lastPos = len(f.units) - 1
		}

	case document.KindRootBlock:
		if !f.hasPaginatable(i) {
			f.emit(f.atomic(i, WarnBlockOversized))
			break
		}
		f.emit(f.header(i, WarnBlockOversized))
		for _, c := range n.Children {
			f.node(c, -1, start)
		}

	case document.KindGroup:
		gp := n.GroupPolicy()
		items := f.countItems(i)
		if !gp.AllowSplit || items < gp.Orphans+gp.Widows || !f.hasPaginatable(i) {
			f.emit(f.atomic(i, WarnGroupOversized))
			break
		}
		f.groups[i] = &groupInfo{policy: gp, lastPos: -1}
		f.emit(f.header(i, WarnGroupOversized))
		for _, c := range n.Children {
			f.node(c, i, start)
		}
	}

	f.propagate(start, n.Policy)
}

func (f *flattener) emit(u unit) {
	u.pos = len(f.units)
	f.units = append(f.units, u)
}

func (f *flattener) isLastSibling(i int) bool {
	siblings := f.doc.Roots
	if p := f.doc.Nodes[i].Parent; p != document.NoParent {
		siblings = f.doc.Nodes[p].Children
	}
	return len(siblings) > 0 && siblings[len(siblings)-1] == i
}

// chromeOrHeight is the extent a plain node occupies outside its children.
func (f *flattener) chromeOrHeight(i int) float64 {
	if f.doc.Nodes[i].IsLeaf() {
		return f.doc.Nodes[i].Height
	}
	return f.doc.Chrome(i)
}

// header is the chrome unit of a container; it keeps with its first
// descendant so a heading never ends a page alone.
func (f *flattener) header(i int, warn WarningKind) unit {
	h := f.doc.Chrome(i)
	return unit{
		height: h,
		keep:   true,
		owner:  i,
		warn:   warn,
		group:  -1,
		item:   -1,
		pieces: []piece{{node: i, height: h, fragment: true}},
	}
}

// atomic lays out subtree i as a single unit. Paginatable descendants get
// pieces at their cursor offsets, chrome on top.
func (f *flattener) atomic(i int, warn WarningKind) unit {
	h := f.doc.Extent(i)
	u := unit{height: h, owner: i, warn: warn, group: -1, item: -1}
	u.pieces = append(u.pieces, piece{node: i, height: h})
	f.layout(i, 0, &u.pieces)
	return u
}

func (f *flattener) layout(i int, top float64, out *[]piece) {
	cursor := top + f.doc.Chrome(i)
	for _, c := range f.doc.Nodes[i].Children {
		h := f.doc.Extent(c)
		if f.doc.Nodes[c].Kind.Paginatable() {
			*out = append(*out, piece{node: c, offset: cursor, height: h})
		}
		f.layout(c, cursor, out)
		cursor += h
	}
}

// propagate applies a node's break policy to the first and last unit its
// subtree produced.
func (f *flattener) propagate(start int, p document.Policy) {
	if start >= len(f.units) {
		return
	}
	first := &f.units[start]
	first.before = document.StrongerBefore(first.before, p.BreakBefore)
	last := &f.units[len(f.units)-1]
	last.after = document.StrongerAfter(last.after, p.BreakAfter)
	last.keep = last.keep || p.KeepWithNext
}

func (f *flattener) hasPaginatable(i int) bool {
	for _, c := range f.doc.Nodes[i].Children {
		if f.doc.Nodes[c].Kind.Paginatable() || f.hasPaginatable(c) {
			return true
		}
	}
	return false
}

// countItems counts the group items of group i reachable through plain
// wrappers.
func (f *flattener) countItems(i int) int {
	var n int
	for _, c := range f.doc.Nodes[i].Children {
		switch f.doc.Nodes[c].Kind {
		case document.KindGroupItem:
			n++
		case document.KindPlain:
			n += f.countItems(c)
		}
	}
	return n
}
