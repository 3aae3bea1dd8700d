package planner

import (
	"encoding/json"
	"reflect"
	"slices"
)

// Status is the state of an operation against the current document.
type Status string

const (
	StatusPending Status = "pending"
	StatusApplied Status = "applied"
	StatusBlocked Status = "blocked"
)

// DiffEntry is the classification of one operation.
type DiffEntry struct {
	OperationID   string   `json:"operationId"`
	NodeID        string   `json:"nodeId"`
	Status        Status   `json:"status"`
	BlockingProps []string `json:"blockingProps,omitempty"`
}

// DiffPlanOperations classifies each operation against the live node:
// blocked when the node does not recognize some proposed prop (or does not
// exist), applied when every proposed value is already current, pending
// otherwise.
func DiffPlanOperations(ops []Operation, ctx Context) []DiffEntry {
	out := make([]DiffEntry, 0, len(ops))
	for _, op := range ops {
		out = append(out, diffOne(op, ctx))
	}
	return out
}

func diffOne(op Operation, ctx Context) DiffEntry {
	e := DiffEntry{OperationID: op.ID, NodeID: op.NodeID}
	keys := make([]string, 0, len(op.Props))
	for k := range op.Props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	n, ok := ctx.GetNode(op.NodeID)
	if !ok {
		e.Status = StatusBlocked
		e.BlockingProps = keys
		return e
	}

	applied := true
	for _, k := range keys {
		if !Recognizes(n.Kind, k) {
			e.BlockingProps = append(e.BlockingProps, k)
			continue
		}
		if !equalValues(n.Props[k], op.Props[k]) {
			applied = false
		}
	}
	switch {
	case len(e.BlockingProps) > 0:
		e.Status = StatusBlocked
	case applied:
		e.Status = StatusApplied
	default:
		e.Status = StatusPending
	}
	return e
}

// Summary counts entries per status.
func Summary(entries []DiffEntry) map[Status]int {
	out := make(map[Status]int, 3)
	for _, e := range entries {
		out[e.Status]++
	}
	return out
}

// Pending splits ops by their diff entries, in order: the operations still
// to apply, and the entries of those that are applied or blocked. entries
// must be the diff of ops.
func Pending(ops []Operation, entries []DiffEntry) ([]Operation, []DiffEntry) {
	pending := make([]Operation, 0, len(ops))
	var skipped []DiffEntry
	for i, e := range entries {
		if e.Status == StatusPending {
			pending = append(pending, ops[i])
			continue
		}
		skipped = append(skipped, e)
	}
	return pending, skipped
}

// equalValues compares prop values, treating all numeric types (including
// values decoded from JSON) as numbers.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
