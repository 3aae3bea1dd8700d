package document

// BreakBefore controls the page boundary in front of a node.
type BreakBefore string

const (
	BreakBeforeAuto  BreakBefore = "auto"
	BreakBeforePage  BreakBefore = "before"
	BreakBeforeAvoid BreakBefore = "avoid"
)

// Valid reports whether b is a known value. Empty means auto.
func (b BreakBefore) Valid() bool {
	switch b {
	case "", BreakBeforeAuto, BreakBeforePage, BreakBeforeAvoid:
		return true
	}
	return false
}

// Normalize maps the empty value to auto.
func (b BreakBefore) Normalize() BreakBefore {
	if b == "" {
		return BreakBeforeAuto
	}
	return b
}

// BreakAfter controls the page boundary behind a node.
type BreakAfter string

const (
	BreakAfterAuto  BreakAfter = "auto"
	BreakAfterPage  BreakAfter = "after"
	BreakAfterAvoid BreakAfter = "avoid"
)

// Valid reports whether b is a known value. Empty means auto.
func (b BreakAfter) Valid() bool {
	switch b {
	case "", BreakAfterAuto, BreakAfterPage, BreakAfterAvoid:
		return true
	}
	return false
}

// Normalize maps the empty value to auto.
func (b BreakAfter) Normalize() BreakAfter {
	if b == "" {
		return BreakAfterAuto
	}
	return b
}

// Policy holds the break directives of a node.
type Policy struct {
	BreakBefore  BreakBefore `json:"breakBefore,omitempty" bson:"break_before,omitempty"`
	BreakAfter   BreakAfter  `json:"breakAfter,omitempty" bson:"break_after,omitempty"`
	KeepWithNext bool        `json:"keepWithNext,omitempty" bson:"keep_with_next,omitempty"`
}

// DefaultPolicy is the policy of nodes that declare none.
func DefaultPolicy() Policy {
	return Policy{BreakBefore: BreakBeforeAuto, BreakAfter: BreakAfterAuto}
}

// Normalize fills empty break values with auto.
func (p Policy) Normalize() Policy {
	p.BreakBefore = p.BreakBefore.Normalize()
	p.BreakAfter = p.BreakAfter.Normalize()
	return p
}

// GroupPolicy holds the split rules of a group node.
// Zero Orphans or Widows disables that constraint.
type GroupPolicy struct {
	AllowSplit bool `json:"allowItemSplit" bson:"allow_item_split"`
	Orphans    int  `json:"orphans" bson:"orphans"`
	Widows     int  `json:"widows" bson:"widows"`
}

// DefaultGroupPolicy is the policy of groups that declare none.
func DefaultGroupPolicy() GroupPolicy {
	return GroupPolicy{AllowSplit: true, Orphans: 1, Widows: 1}
}

// StrongerBefore merges two breakBefore values; a forced break beats avoid,
// and avoid beats auto.
func StrongerBefore(a, b BreakBefore) BreakBefore {
	a, b = a.Normalize(), b.Normalize()
	switch {
	case a == BreakBeforePage || b == BreakBeforePage:
		return BreakBeforePage
	case a == BreakBeforeAvoid || b == BreakBeforeAvoid:
		return BreakBeforeAvoid
	}
	return BreakBeforeAuto
}

// StrongerAfter merges two breakAfter values like [StrongerBefore].
func StrongerAfter(a, b BreakAfter) BreakAfter {
	a, b = a.Normalize(), b.Normalize()
	switch {
	case a == BreakAfterPage || b == BreakAfterPage:
		return BreakAfterPage
	case a == BreakAfterAvoid || b == BreakAfterAvoid:
		return BreakAfterAvoid
	}
	return BreakAfterAuto
}
