package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"

	errs "github.com/matzehuels/pagesetter/pkg/errors"
)

// =============================================================================
// Tree - Nested Wire Format
// =============================================================================

// Tree is the nested JSON representation of a Document, used for files,
// API payloads and caching.
type Tree struct {
	Template PageTemplate `json:"template" bson:"template"`
	Blocks   []Block      `json:"blocks" bson:"blocks"`
}

// Block is one node of a Tree. Policy attributes use the authoring
// vocabulary; unset attributes take their defaults.
type Block struct {
	ID       string         `json:"id" bson:"id"`
	Kind     Kind           `json:"kind" bson:"kind"`
	Height   float64        `json:"height" bson:"height"`
	X        float64        `json:"x,omitempty" bson:"x,omitempty"`
	Width    float64        `json:"width,omitempty" bson:"width,omitempty"`
	Meta     map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
	Children []Block        `json:"children,omitempty" bson:"children,omitempty"`

	BreakBefore  BreakBefore `json:"breakBefore,omitempty" bson:"break_before,omitempty"`
	BreakAfter   BreakAfter  `json:"breakAfter,omitempty" bson:"break_after,omitempty"`
	KeepWithNext bool        `json:"keepWithNext,omitempty" bson:"keep_with_next,omitempty"`

	// Group attributes, meaningful on group blocks only.
	AllowItemSplit *bool `json:"allowItemSplit,omitempty" bson:"allow_item_split,omitempty"`
	Orphans        *int  `json:"orphans,omitempty" bson:"orphans,omitempty"`
	Widows         *int  `json:"widows,omitempty" bson:"widows,omitempty"`
}

// =============================================================================
// Tree ↔ Document Conversion
// =============================================================================

// FromTree builds and validates a Document from its wire form. The template
// is resolved against presets and defaults are applied to missing policies.
func FromTree(t Tree) (Document, error) {
	tpl, err := ResolveTemplate(t.Template)
	if err != nil {
		return Document{}, err
	}
	b := NewBuilder(tpl)
	var add func(parent int, blk Block) error
	add = func(parent int, blk Block) error {
		n := Node{
			ID:     blk.ID,
			Kind:   blk.Kind,
			Height: blk.Height,
			X:      blk.X,
			Width:  blk.Width,
			Meta:   maps.Clone(blk.Meta),
			Policy: Policy{
				BreakBefore:  blk.BreakBefore,
				BreakAfter:   blk.BreakAfter,
				KeepWithNext: blk.KeepWithNext,
			}.Normalize(),
		}
		if blk.Kind == KindGroup {
			gp := DefaultGroupPolicy()
			if blk.AllowItemSplit != nil {
				gp.AllowSplit = *blk.AllowItemSplit
			}
			if blk.Orphans != nil {
				gp.Orphans = *blk.Orphans
			}
			if blk.Widows != nil {
				gp.Widows = *blk.Widows
			}
			n.Group = &gp
		} else if blk.AllowItemSplit != nil || blk.Orphans != nil || blk.Widows != nil {
			return invalid(ErrInvalidPolicy, blk.ID, "group attributes on %s block", blk.Kind)
		}
		i := b.Add(parent, n)
		for _, c := range blk.Children {
			if err := add(i, c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, blk := range t.Blocks {
		if err := add(NoParent, blk); err != nil {
			return Document{}, err
		}
	}
	doc := b.Document()
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ToTree converts a Document to its wire form. Default values are written
// out explicitly so the tree is self-describing.
func ToTree(d *Document) Tree {
	var conv func(i int) Block
	conv = func(i int) Block {
		n := &d.Nodes[i]
		p := n.Policy.Normalize()
		blk := Block{
			ID:           n.ID,
			Kind:         n.Kind,
			Height:       n.Height,
			X:            n.X,
			Width:        n.Width,
			Meta:         maps.Clone(n.Meta),
			BreakBefore:  p.BreakBefore,
			BreakAfter:   p.BreakAfter,
			KeepWithNext: p.KeepWithNext,
		}
		if n.Kind == KindGroup {
			gp := n.GroupPolicy()
			blk.AllowItemSplit = &gp.AllowSplit
			blk.Orphans = &gp.Orphans
			blk.Widows = &gp.Widows
		}
		for _, c := range n.Children {
			blk.Children = append(blk.Children, conv(c))
		}
		return blk
	}
	out := Tree{Template: d.Template, Blocks: make([]Block, 0, len(d.Roots))}
	for _, r := range d.Roots {
		out.Blocks = append(out.Blocks, conv(r))
	}
	return out
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes a Document as an indented JSON tree.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a Document as an indented JSON tree to w.
func Write(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToTree(d)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a Document as a JSON tree to path.
func WriteFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(d, f)
}

// Read decodes and validates a JSON tree.
func Read(r io.Reader) (Document, error) {
	var t Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Document{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode document")
	}
	return FromTree(t)
}

// Unmarshal decodes and validates a JSON tree from bytes.
func Unmarshal(data []byte) (Document, error) {
	return Read(bytes.NewReader(data))
}

// ReadFile reads and validates a JSON tree from path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
