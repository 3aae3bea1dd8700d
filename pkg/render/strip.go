package render

import (
	"strings"

	"github.com/matzehuels/pagesetter/pkg/document"
)

// MetaAuthoringOnly marks a node that exists only in the editor.
const MetaAuthoringOnly = "authoringOnly"

// authoringKeys are editor meta keys removed from rendered nodes.
var authoringKeys = map[string]bool{
	"selected": true,
	"hovered":  true,
	"dragging": true,
	"grid":     true,
	"guides":   true,
	"guide":    true,
	"snap":     true,
}

var authoringPrefixes = []string{"editor:", "editor."}

// IsAuthoringKey reports whether a meta key is editor decoration.
func IsAuthoringKey(key string) bool {
	if authoringKeys[key] {
		return true
	}
	for _, p := range authoringPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func stripMeta(meta map[string]any) map[string]any {
	var out map[string]any
	for k, v := range meta {
		if IsAuthoringKey(k) || k == MetaAuthoringOnly {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(meta))
		}
		out[k] = v
	}
	return out
}

// dropped marks authoring-only nodes and everything below them.
func dropped(doc *document.Document) []bool {
	out := make([]bool, len(doc.Nodes))
	doc.Walk(func(i, _ int) bool {
		n := &doc.Nodes[i]
		if n.Parent != document.NoParent && out[n.Parent] {
			out[i] = true
		} else if v, ok := n.Meta[MetaAuthoringOnly].(bool); ok && v {
			out[i] = true
		}
		return true
	})
	return out
}
