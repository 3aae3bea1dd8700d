package compose

import (
	"fmt"
	"math"
)

// Placement positions one block on a page. Offset is relative to the top of
// the page's content box. A fragment covers only the block's own chrome; its
// descendants carry placements of their own, possibly on later pages.
// Plain wrappers outside atomic blocks are placed as well so the page
// content can be rebuilt without loss.
type Placement struct {
	BlockID      string  `json:"blockId" bson:"block_id"`
	OffsetInPage float64 `json:"offsetInPage" bson:"offset_in_page"`
	Height       float64 `json:"height" bson:"height"`
	Fragment     bool    `json:"fragment,omitempty" bson:"fragment,omitempty"`
}

// Bottom returns the offset just below the placement.
func (p Placement) Bottom() float64 { return p.OffsetInPage + p.Height }

// Page is one output page.
type Page struct {
	Index      int         `json:"index" bson:"index"`
	Placements []Placement `json:"placements" bson:"placements"`
}

// Used returns the lowest bottom edge of the page's placements.
func (p Page) Used() float64 {
	var used float64
	for _, pl := range p.Placements {
		used = math.Max(used, pl.Bottom())
	}
	return used
}

// WarningKind tags a Warning.
type WarningKind string

const (
	WarnBlockOversized  WarningKind = "block-oversized"
	WarnGroupOversized  WarningKind = "group-oversized"
	WarnOrphansAdjusted WarningKind = "orphans-adjusted"
	WarnWidowsAdjusted  WarningKind = "widows-adjusted"
)

// WarningKinds lists every kind in a stable order.
var WarningKinds = []WarningKind{WarnBlockOversized, WarnGroupOversized, WarnOrphansAdjusted, WarnWidowsAdjusted}

// Warning is a layout problem the engine resolved imperfectly. NodeID is set
// for block-oversized, GroupID for the three group kinds.
type Warning struct {
	Kind    WarningKind `json:"kind" bson:"kind"`
	NodeID  string      `json:"nodeId,omitempty" bson:"node_id,omitempty"`
	GroupID string      `json:"groupId,omitempty" bson:"group_id,omitempty"`
	Message string      `json:"message" bson:"message"`
}

// Target returns the id the warning refers to.
func (w Warning) Target() string {
	if w.Kind == WarnBlockOversized {
		return w.NodeID
	}
	return w.GroupID
}

// IsGroup reports whether the warning names a group.
func (w Warning) IsGroup() bool { return w.Kind != WarnBlockOversized }

func blockOversized(id string, h, usable float64) Warning {
	return Warning{
		Kind:    WarnBlockOversized,
		NodeID:  id,
		Message: fmt.Sprintf("block %q is %.0f tall, page content height is %.0f", id, h, usable),
	}
}

func groupOversized(id string, h, usable float64) Warning {
	return Warning{
		Kind:    WarnGroupOversized,
		GroupID: id,
		Message: fmt.Sprintf("unsplittable group %q is %.0f tall, page content height is %.0f", id, h, usable),
	}
}

func orphansAdjusted(id string, have, want int) Warning {
	return Warning{
		Kind:    WarnOrphansAdjusted,
		GroupID: id,
		Message: fmt.Sprintf("group %q: moved %d trailing item(s) to the next page (orphans %d)", id, have, want),
	}
}

func widowsAdjusted(id string, moved, want int) Warning {
	return Warning{
		Kind:    WarnWidowsAdjusted,
		GroupID: id,
		Message: fmt.Sprintf("group %q: moved %d item(s) forward to keep %d on the next page", id, moved, want),
	}
}

// Result is the output of a composition.
type Result struct {
	Pages        []Page    `json:"pages" bson:"pages"`
	Warnings     []Warning `json:"warnings" bson:"warnings"`
	UsableHeight float64   `json:"usableHeight" bson:"usable_height"`
}

// PageOf returns the index of the page holding blockID, or -1.
func (r *Result) PageOf(blockID string) int {
	for _, p := range r.Pages {
		for _, pl := range p.Placements {
			if pl.BlockID == blockID {
				return p.Index
			}
		}
	}
	return -1
}

// Placements returns every placement keyed by block id.
func (r *Result) Placements() map[string]Placement {
	out := make(map[string]Placement)
	for _, p := range r.Pages {
		for _, pl := range p.Placements {
			out[pl.BlockID] = pl
		}
	}
	return out
}
