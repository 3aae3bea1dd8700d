package compose

import (
	"fmt"
	"testing"

	"github.com/matzehuels/pagesetter/pkg/document"
)

// sweepDocuments places a splittable group after intro blocks of every
// height, so page boundaries fall at every possible item.
func sweepDocuments() map[string]document.Document {
	out := make(map[string]document.Document)
	policies := []document.GroupPolicy{
		{AllowSplit: true, Orphans: 1, Widows: 1},
		{AllowSplit: true, Orphans: 2, Widows: 2},
		{AllowSplit: true, Orphans: 2, Widows: 3},
		{AllowSplit: true, Orphans: 3, Widows: 1},
		{AllowSplit: true, Orphans: 0, Widows: 2},
	}
	for _, itemHeight := range []float64{90, 200} {
		for pi, gp := range policies {
			for intro := 0.0; intro <= 1000; intro += 10 {
				b := newBuilder()
				b.block(-1, "intro", intro, document.Policy{})
				b.group(-1, "g", gp, repeat(itemHeight, 8)...)
				b.block(-1, "outro", 120, document.Policy{})
				out[fmt.Sprintf("h%.0f/p%d/intro%.0f", itemHeight, pi, intro)] = b.Document()
			}
		}
	}
	out["sample"] = sampleDocument()
	return out
}

func TestPropertyNoContentLoss(t *testing.T) {
	for name, doc := range sweepDocuments() {
		res := mustCompose(t, doc)
		count := make(map[string]int)
		for _, p := range res.Pages {
			for _, pl := range p.Placements {
				count[pl.BlockID]++
			}
		}
		for _, n := range doc.Nodes {
			if n.Kind == document.KindRootBlock || n.Kind == document.KindGroupItem {
				if count[n.ID] != 1 {
					t.Errorf("%s: %s placed %d times, want 1", name, n.ID, count[n.ID])
				}
			}
		}
	}
}

func TestPropertyPagesWithinBudget(t *testing.T) {
	for name, doc := range sweepDocuments() {
		res := mustCompose(t, doc)
		warned := make(map[string]bool)
		for _, w := range res.Warnings {
			if w.Kind == WarnBlockOversized || w.Kind == WarnGroupOversized {
				warned[w.Target()] = true
			}
		}
		for _, p := range res.Pages {
			if len(p.Placements) == 0 {
				t.Errorf("%s: page %d is empty", name, p.Index)
			}
			for _, pl := range p.Placements {
				if pl.OffsetInPage > res.UsableHeight+epsilon {
					t.Errorf("%s: %s offset %v past usable height", name, pl.BlockID, pl.OffsetInPage)
				}
				if pl.Bottom() > res.UsableHeight+epsilon && !warnedAncestor(&doc, pl.BlockID, warned) {
					t.Errorf("%s: %s overflows page %d without a warning", name, pl.BlockID, p.Index)
				}
			}
		}
	}
}

func warnedAncestor(doc *document.Document, id string, warned map[string]bool) bool {
	for i := doc.IndexOf(id); i != document.NoParent; i = doc.Nodes[i].Parent {
		if warned[doc.Nodes[i].ID] {
			return true
		}
	}
	return false
}

func TestPropertyOrphansWidowsBound(t *testing.T) {
	for name, doc := range sweepDocuments() {
		if name == "sample" {
			continue
		}
		res := mustCompose(t, doc)
		g := doc.Nodes[doc.IndexOf("g")].GroupPolicy()

		perPage := make(map[int]int)
		var order []int
		for i := range 8 {
			p := res.PageOf(itemID("g", i))
			if perPage[p] == 0 {
				order = append(order, p)
			}
			perPage[p]++
		}
		for k := 0; k+1 < len(order); k++ {
			if trailing := perPage[order[k]]; trailing < g.Orphans {
				t.Errorf("%s: page %d ends with %d item(s), orphans %d", name, order[k], trailing, g.Orphans)
			}
			if leading := perPage[order[k+1]]; leading < g.Widows {
				t.Errorf("%s: page %d starts with %d item(s), widows %d", name, order[k+1], leading, g.Widows)
			}
		}
	}
}

func TestPropertyMonotonicOffsets(t *testing.T) {
	for name, doc := range sweepDocuments() {
		res := mustCompose(t, doc)
		for _, p := range res.Pages {
			var last float64
			for _, pl := range p.Placements {
				if pl.OffsetInPage+epsilon < last {
					t.Errorf("%s: page %d: %s at %v before %v", name, p.Index, pl.BlockID, pl.OffsetInPage, last)
				}
				last = pl.OffsetInPage
			}
		}
	}
}
