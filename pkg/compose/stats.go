package compose

// Stats summarizes a Result for logs, the CLI and the HTTP API.
type Stats struct {
	Pages      int                 `json:"pages"`
	Placements int                 `json:"placements"`
	Warnings   map[WarningKind]int `json:"warnings,omitempty"`
	Fill       []float64           `json:"fill"` // used/usable per page, may exceed 1
}

// Stats computes summary figures for r.
func (r *Result) Stats() Stats {
	s := Stats{Pages: len(r.Pages), Fill: make([]float64, len(r.Pages))}
	for i, p := range r.Pages {
		s.Placements += len(p.Placements)
		if r.UsableHeight > 0 {
			s.Fill[i] = p.Used() / r.UsableHeight
		}
	}
	for _, w := range r.Warnings {
		if s.Warnings == nil {
			s.Warnings = make(map[WarningKind]int)
		}
		s.Warnings[w.Kind]++
	}
	return s
}

// Overflowing reports whether any page holds content past its usable height.
func (s Stats) Overflowing() bool {
	for _, f := range s.Fill {
		if f > 1+epsilon {
			return true
		}
	}
	return false
}
