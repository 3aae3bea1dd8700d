package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"

	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// JSONCanvas is the editor's JSON export:
//
//	{
//	  "page": {"name": "a4"},
//	  "zoom": 1.25,
//	  "nodes": [
//	    {"id": "experience", "type": "group",
//	     "rect": {"x": 60, "y": 60, "width": 850, "height": 750},
//	     "props": {"orphans": 2},
//	     "children": [...]}
//	  ]
//	}
type JSONCanvas struct {
	Page      document.PageTemplate `json:"page"`
	ZoomLevel float64               `json:"zoom,omitempty"`
	Nodes     []*JSONNode           `json:"nodes"`
}

// JSONNode is one node of a JSONCanvas.
type JSONNode struct {
	NodeID string         `json:"id"`
	Type   string         `json:"type,omitempty"`
	Rect   Rect           `json:"rect"`
	Props  map[string]any `json:"props,omitempty"`
	Data   map[string]any `json:"meta,omitempty"`
	Items  []*JSONNode    `json:"children,omitempty"`
}

func (c *JSONCanvas) Template() document.PageTemplate { return c.Page }
func (c *JSONCanvas) Zoom() float64                   { return c.ZoomLevel }

func (c *JSONCanvas) Roots() []CanvasNode { return jsonNodes(c.Nodes) }

func (n *JSONNode) ID() string             { return n.NodeID }
func (n *JSONNode) Kind() string           { return n.Type }
func (n *JSONNode) Bounds() Rect           { return n.Rect }
func (n *JSONNode) Meta() map[string]any   { return maps.Clone(n.Data) }
func (n *JSONNode) Children() []CanvasNode { return jsonNodes(n.Items) }

// Attr renders a prop value as text; numbers and booleans keep their JSON
// spelling.
func (n *JSONNode) Attr(name string) (string, bool) {
	v, ok := n.Props[name]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}

func jsonNodes(in []*JSONNode) []CanvasNode {
	out := make([]CanvasNode, len(in))
	for i, n := range in {
		out[i] = n
	}
	return out
}

// ReadJSONCanvas decodes a JSON canvas export.
func ReadJSONCanvas(r io.Reader) (*JSONCanvas, error) {
	var c JSONCanvas
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCanvas, err, "decode canvas")
	}
	return &c, nil
}

// ReadJSONCanvasFile decodes a JSON canvas export from path.
func ReadJSONCanvasFile(path string) (*JSONCanvas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONCanvas(f)
}
