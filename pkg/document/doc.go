// Package document defines the immutable snapshot a composition runs on.
//
// A [Document] is an arena: a flat slice of [Node] values addressed by
// index, with parent/child relations stored as indices instead of pointers.
// The arena is produced once per composition request (by pkg/extract or by
// decoding a wire [Tree]) and is never mutated by the engine, the renderer
// or the planner.
//
// # Node Kinds
//
// Kinds form a closed set:
//
//	root-block   independently paginatable unit (a section, a repeated entry)
//	group        repeating collection with its own split/orphan/widow policy
//	group-item   one element of a group
//	plain        non-paginatable wrapper, flattened into its parent's stream
//
// Only root-block, group and group-item nodes are break candidates. Plain
// nodes still occupy space; their chrome travels with the content after it.
//
// # Geometry
//
// Heights are measured by the caller and are authoritative. A parent's
// effective height is the sum of its children's heights plus its own
// chrome; when a parent reports less than the sum of its children, the sum
// wins.
//
// # Wire Format
//
// Documents are exchanged as nested JSON trees:
//
//	{
//	  "template": {"preset": "a4", "contentPadding": 48},
//	  "blocks": [
//	    {"id": "experience", "kind": "group", "height": 600, "orphans": 2,
//	     "children": [{"id": "job-1", "kind": "group-item", "height": 200}]}
//	  ]
//	}
//
// Use [FromTree]/[ToTree] to convert between the two representations, and
// [Read]/[ReadFile]/[Marshal] for I/O.
//
// # Validation
//
// [Document.Validate] rejects malformed input with an [InvalidDocumentError]:
// negative or non-finite heights, unknown kinds, duplicate ids, cycles,
// dangling or shared children and out-of-vocabulary policy values. Such
// errors are caller bugs, not layout conditions.
package document
