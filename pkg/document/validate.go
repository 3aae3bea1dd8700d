package document

import (
	"errors"
	"fmt"
	"math"

	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// Structural failure reasons carried by [InvalidDocumentError].
var (
	ErrNegativeHeight  = errors.New("negative or non-finite geometry")
	ErrUnknownKind     = errors.New("unknown node kind")
	ErrDuplicateID     = errors.New("duplicate node id")
	ErrInvalidID       = errors.New("invalid node id")
	ErrCycle           = errors.New("cyclic parent reference")
	ErrDanglingChild   = errors.New("dangling node reference")
	ErrMultipleParents = errors.New("node has more than one parent")
	ErrUnreachable     = errors.New("node not reachable from any root")
	ErrInvalidPolicy   = errors.New("invalid pagination policy")
	ErrInvalidTemplate = errors.New("invalid page template")
)

// InvalidDocumentError reports malformed input. It is a caller bug and is
// never produced for layout conditions such as overflow.
type InvalidDocumentError struct {
	Reason error  // one of the Err* sentinels above
	NodeID string // offending node, empty for document-level problems
	Detail string
}

func (e *InvalidDocumentError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("invalid document: node %q: %s", e.NodeID, e.Detail)
	}
	return "invalid document: " + e.Detail
}

// Unwrap exposes both the sentinel reason and the coded error, so
// errors.Is(err, ErrCycle) and errs.Is(err, errs.ErrCodeInvalidDocument)
// both hold.
func (e *InvalidDocumentError) Unwrap() []error {
	code := errs.ErrCodeInvalidDocument
	if e.Reason == ErrInvalidTemplate {
		code = errs.ErrCodeInvalidTemplate
	}
	return []error{e.Reason, &errs.Error{Code: code, Message: e.Error()}}
}

func invalid(reason error, id, format string, args ...any) *InvalidDocumentError {
	return &InvalidDocumentError{Reason: reason, NodeID: id, Detail: fmt.Sprintf(format, args...)}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks the template, every node and the arena's tree structure.
// It returns the first problem found in arena order.
func (d *Document) Validate() error {
	if err := d.Template.Validate(); err != nil {
		return err
	}

	seen := make(map[string]int, len(d.Nodes))
	for i := range d.Nodes {
		if err := d.validateNode(i); err != nil {
			return err
		}
		id := d.Nodes[i].ID
		if j, dup := seen[id]; dup {
			return invalid(ErrDuplicateID, id, "also defined at index %d", j)
		}
		seen[id] = i
	}
	return d.validateStructure()
}

func (d *Document) validateNode(i int) error {
	n := &d.Nodes[i]
	if err := errs.ValidateNodeID(n.ID); err != nil {
		return invalid(ErrInvalidID, n.ID, "%s", errs.UserMessage(err))
	}
	if !n.Kind.Valid() {
		return invalid(ErrUnknownKind, n.ID, "kind %q", n.Kind)
	}
	if !finite(n.Height) || n.Height < 0 {
		return invalid(ErrNegativeHeight, n.ID, "height %v", n.Height)
	}
	if !finite(n.X) || !finite(n.Width) || n.Width < 0 {
		return invalid(ErrNegativeHeight, n.ID, "x %v width %v", n.X, n.Width)
	}
	if !n.Policy.BreakBefore.Valid() {
		return invalid(ErrInvalidPolicy, n.ID, "breakBefore %q", n.Policy.BreakBefore)
	}
	if !n.Policy.BreakAfter.Valid() {
		return invalid(ErrInvalidPolicy, n.ID, "breakAfter %q", n.Policy.BreakAfter)
	}
	if g := n.Group; g != nil {
		if n.Kind != KindGroup {
			return invalid(ErrInvalidPolicy, n.ID, "group policy on %s node", n.Kind)
		}
		if g.Orphans < 0 || g.Widows < 0 {
			return invalid(ErrInvalidPolicy, n.ID, "orphans %d widows %d", g.Orphans, g.Widows)
		}
	}
	return nil
}

// validateStructure checks index ranges, then looks for cycles through the
// child lists with three-colour marking, then checks that every node has
// exactly one consistent parent link and is reachable from a root.
func (d *Document) validateStructure() error {
	n := len(d.Nodes)
	inRange := func(i int) bool { return i >= 0 && i < n }

	for _, r := range d.Roots {
		if !inRange(r) {
			return invalid(ErrDanglingChild, "", "root index %d out of range", r)
		}
	}
	for i := range d.Nodes {
		if p := d.Nodes[i].Parent; p != NoParent && !inRange(p) {
			return invalid(ErrDanglingChild, d.Nodes[i].ID, "parent index %d out of range", p)
		}
		for _, c := range d.Nodes[i].Children {
			if !inRange(c) {
				return invalid(ErrDanglingChild, d.Nodes[i].ID, "child index %d out of range", c)
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, n)
	var visit func(i int) error
	visit = func(i int) error {
		color[i] = grey
		for _, c := range d.Nodes[i].Children {
			switch color[c] {
			case grey:
				return invalid(ErrCycle, d.Nodes[c].ID, "node is its own ancestor")
			case white:
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		color[i] = black
		return nil
	}
	for i := range d.Nodes {
		if color[i] == white {
			if err := visit(i); err != nil {
				return err
			}
		}
	}

	parents := make([]int, n)
	for i := range d.Nodes {
		for _, c := range d.Nodes[i].Children {
			parents[c]++
			if parents[c] > 1 {
				return invalid(ErrMultipleParents, d.Nodes[c].ID, "listed under more than one parent")
			}
			if d.Nodes[c].Parent != i {
				return invalid(ErrMultipleParents, d.Nodes[c].ID, "listed under %q but parent index is %d", d.Nodes[i].ID, d.Nodes[c].Parent)
			}
		}
	}

	isRoot := make([]bool, n)
	for _, r := range d.Roots {
		if isRoot[r] || parents[r] > 0 || d.Nodes[r].Parent != NoParent {
			return invalid(ErrMultipleParents, d.Nodes[r].ID, "root listed twice or also a child")
		}
		isRoot[r] = true
	}
	for i := range d.Nodes {
		if !isRoot[i] && parents[i] == 0 {
			return invalid(ErrUnreachable, d.Nodes[i].ID, "parent index %d", d.Nodes[i].Parent)
		}
	}
	return nil
}
