package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/pagesetter/pkg/compose"
)

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 pages"},
		{1, "1 page"},
		{12, "12 pages"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, "page"); got != tt.want {
			t.Errorf("plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"photo", 10, "photo"},
		{"photo, intro, jobs", 8, "photo, …"},
		{"éèêë", 3, "éè…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatProps(t *testing.T) {
	got := formatProps(map[string]any{"orphans": 3, "breakBefore": "page"})
	if got != "breakBefore=page orphans=3" {
		t.Errorf("formatProps() = %q", got)
	}
	if formatProps(nil) != "" {
		t.Error("empty props should format as empty string")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0f8e1c2d-aaaa"); got != "0f8e1c2d" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q", got)
	}
}

func TestPrinterWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := printer{w: &buf}

	p.warnings(nil)
	if buf.Len() != 0 {
		t.Error("no warnings should print nothing")
	}

	p.warnings([]compose.Warning{{Kind: compose.WarnBlockOversized, NodeID: "photo", Message: "taller than a page"}})
	out := buf.String()
	for _, want := range []string{"block-oversized", "photo", "taller than a page"} {
		if !strings.Contains(out, want) {
			t.Errorf("warnings output missing %q", want)
		}
	}
}

func TestTotalWarnings(t *testing.T) {
	s := compose.Stats{Warnings: map[compose.WarningKind]int{
		compose.WarnBlockOversized:  1,
		compose.WarnWidowsAdjusted:  2,
		compose.WarnOrphansAdjusted: 0,
	}}
	if got := totalWarnings(s); got != 3 {
		t.Errorf("totalWarnings() = %d, want 3", got)
	}
}
