package planner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/pagesetter/pkg/compose"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// Category groups operations for display.
type Category string

const (
	CategoryBreak Category = "break"
	CategoryGroup Category = "group"
)

// Operation is a proposed property patch on one node.
type Operation struct {
	ID       string              `json:"id"`
	NodeID   string              `json:"nodeId"`
	Category Category            `json:"category"`
	Label    string              `json:"label"`
	Reason   string              `json:"reason"`
	Props    map[string]any      `json:"props"`
	Warning  compose.WarningKind `json:"warning"`
}

// Plan is the ordered list of operations built from one warning snapshot.
type Plan struct {
	Operations []Operation `json:"operations"`
	Summary    string      `json:"summary"`
}

// planNamespace seeds deterministic operation ids.
var planNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://pagesetter.dev/plan"))

func operationID(index int, kind compose.WarningKind, nodeID string) string {
	return uuid.NewSHA1(planNamespace, fmt.Appendf(nil, "%d:%s:%s", index, kind, nodeID)).String()
}

// BuildPlan proposes one operation per warning, in warning order. Operation
// ids depend only on the warning's position, kind and target, so equal
// inputs give equal plans.
func BuildPlan(warnings []compose.Warning, ctx Context) (Plan, error) {
	plan := Plan{Operations: make([]Operation, 0, len(warnings))}
	for i, w := range warnings {
		op, err := remediate(w, ctx)
		if err != nil {
			return Plan{}, err
		}
		op.ID = operationID(i, w.Kind, op.NodeID)
		op.Warning = w.Kind
		op.Reason = w.Message
		plan.Operations = append(plan.Operations, op)
	}
	plan.Summary = summarize(len(plan.Operations))
	return plan, nil
}

func remediate(w compose.Warning, ctx Context) (Operation, error) {
	switch w.Kind {
	case compose.WarnBlockOversized:
		target := breakTarget(w.NodeID, ctx)
		return Operation{
			NodeID:   target,
			Category: CategoryBreak,
			Label:    fmt.Sprintf("Forcer un saut de page avant « %s »", target),
			Props:    map[string]any{PropBreakBefore: "before"},
		}, nil

	case compose.WarnGroupOversized:
		owner := groupOwner(w.GroupID, ctx)
		return Operation{
			NodeID:   owner,
			Category: CategoryGroup,
			Label:    fmt.Sprintf("Autoriser la coupure du groupe « %s »", owner),
			Props:    map[string]any{PropAllowItemSplit: true},
		}, nil

	case compose.WarnWidowsAdjusted:
		owner := groupOwner(w.GroupID, ctx)
		next := currentInt(owner, PropWidows, ctx) + 1
		return Operation{
			NodeID:   owner,
			Category: CategoryGroup,
			Label:    fmt.Sprintf("Passer les veuves de « %s » à %d", owner, next),
			Props:    map[string]any{PropWidows: next},
		}, nil

	case compose.WarnOrphansAdjusted:
		owner := groupOwner(w.GroupID, ctx)
		next := currentInt(owner, PropOrphans, ctx) + 1
		return Operation{
			NodeID:   owner,
			Category: CategoryGroup,
			Label:    fmt.Sprintf("Passer les orphelines de « %s » à %d", owner, next),
			Props:    map[string]any{PropOrphans: next},
		}, nil
	}
	return Operation{}, errs.New(errs.ErrCodeInvalidPlan, "unknown warning kind %q", w.Kind)
}

// breakTarget walks up from id to the first node recognizing breakBefore.
// Unknown nodes are returned as is; the diff reports them as blocked.
func breakTarget(id string, ctx Context) string {
	for cur := id; ; {
		if n, ok := ctx.GetNode(cur); ok && Recognizes(n.Kind, PropBreakBefore) {
			return cur
		}
		parent, ok := ctx.GetParentOf(cur)
		if !ok {
			return id
		}
		cur = parent
	}
}

func groupOwner(groupID string, ctx Context) string {
	if owner, ok := ctx.ResolveGroupOwner(groupID); ok {
		return owner
	}
	return groupID
}

// currentInt reads an integer prop, falling back to the group default.
func currentInt(id, prop string, ctx Context) int {
	if n, ok := ctx.GetNode(id); ok {
		if v, ok := toFloat(n.Props[prop]); ok {
			return int(v)
		}
	}
	return 1
}

func summarize(n int) string {
	switch n {
	case 0:
		return "Plan IA généré : aucune opération"
	case 1:
		return "Plan IA généré : 1 opération"
	}
	return fmt.Sprintf("Plan IA généré : %d opérations", n)
}
