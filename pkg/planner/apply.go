package planner

import (
	"math"
	"slices"

	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// Apply returns a copy of doc with the props of ops written to their target
// nodes, in order. It fails on unknown nodes, unrecognized props and values
// of the wrong type, leaving doc untouched.
func Apply(doc document.Document, ops []Operation) (document.Document, error) {
	out := doc.Clone()
	index := out.Index()
	for _, op := range ops {
		i, ok := index[op.NodeID]
		if !ok {
			return document.Document{}, errs.New(errs.ErrCodeNotFound, "operation %s: node %q not found", op.ID, op.NodeID)
		}
		keys := make([]string, 0, len(op.Props))
		for k := range op.Props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if err := setProp(&out.Nodes[i], k, op.Props[k]); err != nil {
				return document.Document{}, errs.Wrap(errs.ErrCodeInvalidPlan, err, "operation %s: %s", op.ID, errs.UserMessage(err))
			}
		}
	}
	if err := out.Validate(); err != nil {
		return document.Document{}, err
	}
	return out, nil
}

func setProp(n *document.Node, prop string, v any) error {
	if !Recognizes(n.Kind, prop) {
		return errs.New(errs.ErrCodeInvalidPlan, "%s node %q does not recognize %q", n.Kind, n.ID, prop)
	}
	switch prop {
	case PropBreakBefore:
		s, ok := v.(string)
		if !ok || !document.BreakBefore(s).Valid() {
			return badValue(n, prop, v)
		}
		n.Policy.BreakBefore = document.BreakBefore(s).Normalize()
	case PropBreakAfter:
		s, ok := v.(string)
		if !ok || !document.BreakAfter(s).Valid() {
			return badValue(n, prop, v)
		}
		n.Policy.BreakAfter = document.BreakAfter(s).Normalize()
	case PropKeepWithNext:
		b, ok := v.(bool)
		if !ok {
			return badValue(n, prop, v)
		}
		n.Policy.KeepWithNext = b
	case PropAllowItemSplit:
		b, ok := v.(bool)
		if !ok {
			return badValue(n, prop, v)
		}
		groupPolicy(n).AllowSplit = b
	case PropOrphans, PropWidows:
		f, ok := toFloat(v)
		if !ok || f < 0 || f != math.Trunc(f) {
			return badValue(n, prop, v)
		}
		if prop == PropOrphans {
			groupPolicy(n).Orphans = int(f)
		} else {
			groupPolicy(n).Widows = int(f)
		}
	}
	return nil
}

func groupPolicy(n *document.Node) *document.GroupPolicy {
	if n.Group == nil {
		gp := document.DefaultGroupPolicy()
		n.Group = &gp
	}
	return n.Group
}

func badValue(n *document.Node, prop string, v any) error {
	return errs.New(errs.ErrCodeInvalidPlan, "node %q: invalid %s value %v", n.ID, prop, v)
}
