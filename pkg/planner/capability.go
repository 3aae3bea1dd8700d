package planner

import (
	"slices"

	"github.com/matzehuels/pagesetter/pkg/document"
)

// Prop names of the policy attribute vocabulary.
const (
	PropBreakBefore    = "breakBefore"
	PropBreakAfter     = "breakAfter"
	PropKeepWithNext   = "keepWithNext"
	PropAllowItemSplit = "allowItemSplit"
	PropOrphans        = "orphans"
	PropWidows         = "widows"
)

var breakProps = []string{PropBreakBefore, PropBreakAfter, PropKeepWithNext}

var capabilities = map[document.Kind][]string{
	document.KindRootBlock: breakProps,
	document.KindGroupItem: breakProps,
	document.KindGroup:     append(slices.Clone(breakProps), PropAllowItemSplit, PropOrphans, PropWidows),
	document.KindPlain:     nil,
}

// Capabilities returns the props nodes of kind k recognize.
func Capabilities(k document.Kind) []string {
	return slices.Clone(capabilities[k])
}

// Recognizes reports whether nodes of kind k recognize prop.
func Recognizes(k document.Kind, prop string) bool {
	return slices.Contains(capabilities[k], prop)
}
