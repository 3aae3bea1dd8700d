package document

import (
	"math"
	"slices"
	"strings"
)

// PageTemplate describes the target page. Lengths are CSS pixels at 96 dpi.
type PageTemplate struct {
	Name           string  `json:"name,omitempty" bson:"name,omitempty" toml:"name"`
	Width          float64 `json:"width" bson:"width" toml:"width"`
	Height         float64 `json:"height" bson:"height" toml:"height"`
	ContentPadding float64 `json:"contentPadding" bson:"content_padding" toml:"content_padding"`
	HeaderHeight   float64 `json:"headerHeight,omitempty" bson:"header_height,omitempty" toml:"header_height"`
	FooterHeight   float64 `json:"footerHeight,omitempty" bson:"footer_height,omitempty" toml:"footer_height"`
	Background     string  `json:"background,omitempty" bson:"background,omitempty" toml:"background"`
}

// UsableHeight is the vertical budget per page:
// height - 2*contentPadding - header - footer.
func (t PageTemplate) UsableHeight() float64 {
	return t.Height - 2*t.ContentPadding - t.HeaderHeight - t.FooterHeight
}

// UsableWidth is the horizontal content width per page.
func (t PageTemplate) UsableWidth() float64 {
	return t.Width - 2*t.ContentPadding
}

// ContentTop is the page-absolute y of offset 0.
func (t PageTemplate) ContentTop() float64 {
	return t.ContentPadding + t.HeaderHeight
}

// Validate rejects templates that leave no room for content.
func (t PageTemplate) Validate() error {
	for _, v := range []float64{t.Width, t.Height, t.ContentPadding, t.HeaderHeight, t.FooterHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return invalid(ErrInvalidTemplate, "", "template lengths must be finite and non-negative")
		}
	}
	if t.UsableHeight() <= 0 {
		return invalid(ErrInvalidTemplate, "", "usable height %.2f must be positive", t.UsableHeight())
	}
	if t.UsableWidth() <= 0 {
		return invalid(ErrInvalidTemplate, "", "usable width %.2f must be positive", t.UsableWidth())
	}
	return nil
}

// Page size presets in CSS pixels at 96 dpi.
var presets = map[string]PageTemplate{
	"a4":     {Name: "a4", Width: 794, Height: 1123, ContentPadding: 48},
	"a5":     {Name: "a5", Width: 559, Height: 794, ContentPadding: 32},
	"letter": {Name: "letter", Width: 816, Height: 1056, ContentPadding: 48},
	"legal":  {Name: "legal", Width: 816, Height: 1344, ContentPadding: 48},
}

// DefaultPreset is used when neither a preset nor dimensions are given.
const DefaultPreset = "a4"

// Preset returns the named page template.
func Preset(name string) (PageTemplate, bool) {
	t, ok := presets[strings.ToLower(name)]
	return t, ok
}

// PresetNames lists preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// ResolveTemplate fills zero width and height from the named preset (or the
// default preset when the name is empty). Explicit values always win. An
// unknown preset name with missing dimensions is an error.
func ResolveTemplate(t PageTemplate) (PageTemplate, error) {
	if t.Width > 0 && t.Height > 0 {
		return t, nil
	}
	name := t.Name
	if name == "" {
		name = DefaultPreset
	}
	p, ok := Preset(name)
	if !ok {
		return t, invalid(ErrInvalidTemplate, "", "unknown page preset %q", t.Name)
	}
	if t.Width == 0 {
		t.Width = p.Width
	}
	if t.Height == 0 {
		t.Height = p.Height
	}
	if t.ContentPadding == 0 {
		t.ContentPadding = p.ContentPadding
	}
	t.Name = p.Name
	return t, nil
}
