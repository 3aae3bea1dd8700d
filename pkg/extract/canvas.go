package extract

import "github.com/matzehuels/pagesetter/pkg/document"

// Policy attribute names, shared by every canvas projection.
const (
	AttrBreakBefore    = "breakBefore"
	AttrBreakAfter     = "breakAfter"
	AttrKeepWithNext   = "keepWithNext"
	AttrAllowItemSplit = "allowItemSplit"
	AttrOrphans        = "orphans"
	AttrWidows         = "widows"
)

// Rect is a bounding box in canvas (screen) coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CanvasNode is the read projection of one authored node.
type CanvasNode interface {
	ID() string
	// Kind is the declared node kind; empty means plain.
	Kind() string
	Bounds() Rect
	// Attr returns a policy attribute in its textual form.
	Attr(name string) (string, bool)
	Meta() map[string]any
	Children() []CanvasNode
}

// Canvas is the read projection of an authored page.
type Canvas interface {
	Template() document.PageTemplate
	// Zoom is the scale the bounds were measured at, 0 if unknown.
	Zoom() float64
	Roots() []CanvasNode
}
