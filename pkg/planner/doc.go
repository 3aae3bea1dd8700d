// Package planner turns composition warnings into proposed property edits.
//
// [BuildPlan] maps each [compose.Warning] to one [Operation], in warning
// order. [DiffPlanOperations] compares operations with the current state of
// their target nodes and classifies each as pending, applied or blocked.
// Both are pure and read nodes only through a [Context].
//
// # Remediation
//
//	block-oversized   breakBefore: "before" on the block, or its nearest
//	                  ancestor that recognizes breakBefore
//	group-oversized   allowItemSplit: true on the group owner
//	widows-adjusted   widows: current + 1 on the group owner
//	orphans-adjusted  orphans: current + 1 on the group owner
//
// # Capabilities
//
// Which props a node recognizes depends only on its kind, see
// [Capabilities]. An operation proposing a prop its target does not
// recognize is blocked; applying it would be meaningless.
//
// Plans go stale as soon as the document changes; re-compose and re-diff
// after every edit.
package planner
