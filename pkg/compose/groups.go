package compose

// adjustGroupBoundary is consulted when chain c does not fit on the current
// page. If the break would fall inside a split group and violate its orphans
// or widows minimum, it moves part of the page forward, closes the page and
// returns the new queue.
func (p *pager) adjustGroupBoundary(c chain, queue []chain) ([]chain, bool) {
	last := p.lastItem()
	if last == nil {
		return nil, false
	}
	g := last.group
	info := p.groups[g]
	if last.pos >= info.lastPos {
		// the group ended on this page
		return nil, false
	}

	onPage := 0
	firstChain := -1
	for j, pc := range p.cur {
		if n := pc.items(g); n > 0 {
			onPage += n
			if firstChain < 0 {
				firstChain = j
			}
		}
	}
	leading := info.items - (last.item + 1)
	policy := info.policy
	id := p.doc.Nodes[g].ID

	if policy.Orphans > 0 && onPage < policy.Orphans && firstChain > 0 {
		popped := p.rewind(firstChain)
		p.warn(orphansAdjusted(id, onPage, policy.Orphans))
		p.newPage()
		return requeue(popped, c, queue), true
	}

	if policy.Widows > 0 && leading < policy.Widows {
		tail := c.height + p.groupTail(g, queue)
		need := policy.Widows - leading
		keep := max(policy.Orphans, 1)

		j, moved := len(p.cur), 0
		for j > 0 && moved < need {
			j--
			moved += p.cur[j].items(g)
		}
		if moved >= need && onPage-moved >= keep && j > 0 && p.heightFrom(j)+tail <= p.usable+epsilon {
			popped := p.rewind(j)
			p.warn(widowsAdjusted(id, moved, policy.Widows))
			p.newPage()
			return requeue(popped, c, queue), true
		}

		// Fall back to keeping this run of the group together.
		if firstChain > 0 && p.heightFrom(firstChain)+tail <= p.usable+epsilon {
			popped := p.rewind(firstChain)
			p.warn(widowsAdjusted(id, onPage, policy.Widows))
			p.newPage()
			return requeue(popped, c, queue), true
		}
	}
	return nil, false
}

// lastItem returns the last group item unit on the current page.
func (p *pager) lastItem() *unit {
	for j := len(p.cur) - 1; j >= 0; j-- {
		units := p.cur[j].units
		for k := len(units) - 1; k >= 0; k-- {
			if units[k].group >= 0 {
				return units[k]
			}
		}
	}
	return nil
}

// groupTail sums the queued chains up to and including group g's last item.
func (p *pager) groupTail(g int, queue []chain) float64 {
	end := p.groups[g].lastPos
	var h float64
	for _, c := range queue {
		if c.first().pos > end {
			break
		}
		h += c.height
	}
	return h
}
