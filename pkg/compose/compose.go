package compose

import (
	"github.com/matzehuels/pagesetter/pkg/document"
)

// epsilon absorbs floating point noise in fit checks.
const epsilon = 1e-6

// Compose paginates doc. It fails only when doc is malformed, with a
// *document.InvalidDocumentError; layout problems are reported in
// Result.Warnings.
func Compose(doc document.Document) (Result, error) {
	if err := doc.Validate(); err != nil {
		return Result{}, err
	}

	units, groups := flatten(&doc)
	p := newPager(&doc, groups)
	p.run(buildChains(units))

	return Result{
		Pages:        p.pages,
		Warnings:     p.warnings,
		UsableHeight: p.usable,
	}, nil
}

// =============================================================================
// Chains
// =============================================================================

// chain is a run of units that must share a page.
type chain struct {
	units  []*unit
	height float64
}

func (c chain) first() *unit { return c.units[0] }
func (c chain) last() *unit  { return c.units[len(c.units)-1] }

// items counts the units of c that are items of group g.
func (c chain) items(g int) int {
	var n int
	for _, u := range c.units {
		if u.isItemOf(g) {
			n++
		}
	}
	return n
}

func joins(a, b *unit) bool {
	if a.after == document.BreakAfterPage || b.before == document.BreakBeforePage {
		return false
	}
	if a.keep {
		return true
	}
	return a.after == document.BreakAfterAvoid && b.before == document.BreakBeforeAvoid
}

func buildChains(units []unit) []chain {
	var out []chain
	for i := range units {
		u := &units[i]
		if n := len(out); n > 0 && joins(out[n-1].last(), u) {
			out[n-1].units = append(out[n-1].units, u)
			out[n-1].height += u.height
			continue
		}
		out = append(out, chain{units: []*unit{u}, height: u.height})
	}
	return out
}

func singletons(c chain) []chain {
	out := make([]chain, len(c.units))
	for i, u := range c.units {
		out[i] = chain{units: []*unit{u}, height: u.height}
	}
	return out
}

// requeue puts front and c ahead of rest without aliasing rest.
func requeue(front []chain, c chain, rest []chain) []chain {
	out := make([]chain, 0, len(front)+1+len(rest))
	out = append(out, front...)
	out = append(out, c)
	return append(out, rest...)
}

// =============================================================================
// Pager
// =============================================================================

type placedChain struct {
	chain
	offset float64
}

type pager struct {
	doc    *document.Document
	groups map[int]*groupInfo
	usable float64

	cur  []placedChain
	used float64

	pages    []Page
	warnings []Warning
	warned   map[Warning]bool
}

func newPager(doc *document.Document, groups map[int]*groupInfo) *pager {
	return &pager{
		doc:      doc,
		groups:   groups,
		usable:   doc.Template.UsableHeight(),
		pages:    []Page{},
		warnings: []Warning{},
		warned:   make(map[Warning]bool),
	}
}

func (p *pager) run(queue []chain) {
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if !p.empty() && p.forcedBefore(c) {
			p.newPage()
		}
		if len(c.units) > 1 && c.height > p.usable+epsilon {
			queue = append(singletons(c), queue...)
			continue
		}
		if p.empty() || p.fits(c.height) {
			p.place(c)
			continue
		}
		if rest, ok := p.adjustGroupBoundary(c, queue); ok {
			queue = rest
			continue
		}
		p.newPage()
		p.place(c)
	}
	p.newPage()
}

func (p *pager) empty() bool { return len(p.cur) == 0 }

func (p *pager) fits(h float64) bool { return p.used+h <= p.usable+epsilon }

func (p *pager) forcedBefore(c chain) bool {
	return c.first().before == document.BreakBeforePage ||
		p.cur[len(p.cur)-1].last().after == document.BreakAfterPage
}

func (p *pager) place(c chain) {
	p.cur = append(p.cur, placedChain{chain: c, offset: p.used})
	p.used += c.height
	for _, u := range c.units {
		if u.owner >= 0 && u.height > p.usable+epsilon {
			p.oversized(u)
		}
	}
}

func (p *pager) oversized(u *unit) {
	id := p.doc.Nodes[u.owner].ID
	if u.warn == WarnGroupOversized {
		p.warn(groupOversized(id, u.height, p.usable))
		return
	}
	p.warn(blockOversized(id, u.height, p.usable))
}

// warn records w once per kind and target. Orphans are only adjusted at a
// group's first boundary and widows only at its last, so this is also once
// per boundary.
func (p *pager) warn(w Warning) {
	key := Warning{Kind: w.Kind, NodeID: w.NodeID, GroupID: w.GroupID}
	if p.warned[key] {
		return
	}
	p.warned[key] = true
	p.warnings = append(p.warnings, w)
}

// rewind removes chains j.. from the current page and returns them.
func (p *pager) rewind(j int) []chain {
	popped := make([]chain, 0, len(p.cur)-j)
	for _, pc := range p.cur[j:] {
		popped = append(popped, pc.chain)
	}
	p.used = p.cur[j].offset
	p.cur = p.cur[:j]
	return popped
}

// heightFrom sums the heights of the current page's chains from j on.
func (p *pager) heightFrom(j int) float64 {
	if j >= len(p.cur) {
		return 0
	}
	return p.used - p.cur[j].offset
}

// newPage closes the current page. Empty pages are never emitted.
func (p *pager) newPage() {
	if p.empty() {
		return
	}
	page := Page{Index: len(p.pages)}
	for _, pc := range p.cur {
		top := pc.offset
		for _, u := range pc.units {
			for _, pi := range u.pieces {
				page.Placements = append(page.Placements, Placement{
					BlockID:      p.doc.Nodes[pi.node].ID,
					OffsetInPage: top + pi.offset,
					Height:       pi.height,
					Fragment:     pi.fragment,
				})
			}
			top += u.height
		}
	}
	p.pages = append(p.pages, page)
	p.cur = nil
	p.used = 0
}
