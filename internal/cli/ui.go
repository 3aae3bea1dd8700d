package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/planner"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder   = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Printer
// =============================================================================

// printer writes styled status lines to w.
type printer struct{ w io.Writer }

func (c *CLI) ui() printer { return printer{w: c.out} }

func (p printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	fmt.Fprintln(p.w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p printer) file(path string) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func (p printer) keyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(p.w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

func (p printer) nextStep(description, cmd string) {
	fmt.Fprintln(p.w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// stats prints a composition summary on a single line.
func (p printer) stats(s compose.Stats, cached bool) {
	parts := []string{
		plural(s.Pages, "page"),
		plural(s.Placements, "placement"),
	}
	if n := totalWarnings(s); n > 0 {
		parts = append(parts, plural(n, "warning"))
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	var line strings.Builder
	line.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			line.WriteString(StyleDim.Render(" · "))
		}
		line.WriteString(StyleDim.Render(part))
	}
	line.WriteString(StyleDim.Render(" · ") + statusStyle.Render(status))
	fmt.Fprintln(p.w, line.String())
}

// =============================================================================
// Tables
// =============================================================================

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...)
}

// pages prints one row per page with its blocks and fill ratio.
func (p printer) pages(res compose.Result) {
	stats := res.Stats()
	rows := make([][]string, 0, len(res.Pages))
	for i, pg := range res.Pages {
		ids := make([]string, 0, len(pg.Placements))
		for _, pl := range pg.Placements {
			ids = append(ids, pl.BlockID)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(len(pg.Placements)),
			fmt.Sprintf("%.0f%%", stats.Fill[i]*100),
			truncate(strings.Join(ids, ", "), 60),
		})
	}
	t := newTable("Page", "Blocks", "Fill", "Content").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			if col == 2 && stats.Fill[row] > 1 {
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(p.w, t.Render())
}

// warnings prints the warning list as a table.
func (p printer) warnings(ws []compose.Warning) {
	if len(ws) == 0 {
		return
	}
	rows := make([][]string, 0, len(ws))
	for _, w := range ws {
		rows = append(rows, []string{string(w.Kind), w.Target(), w.Message})
	}
	t := newTable("Warning", "Target", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			if col == 0 {
				return StyleWarning
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(p.w, t.Render())
}

// plan prints the operations with their diff status when entries are given.
func (p printer) plan(ops []planner.Operation, entries []planner.DiffEntry) {
	status := make(map[string]planner.DiffEntry, len(entries))
	for _, e := range entries {
		status[e.OperationID] = e
	}
	rows := make([][]string, 0, len(ops))
	for _, op := range ops {
		st := ""
		if e, ok := status[op.ID]; ok {
			st = string(e.Status)
			if len(e.BlockingProps) > 0 {
				st += " (" + strings.Join(e.BlockingProps, ", ") + ")"
			}
		}
		rows = append(rows, []string{shortID(op.ID), op.NodeID, formatProps(op.Props), op.Label, st})
	}
	t := newTable("ID", "Node", "Patch", "Label", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			if col != 4 {
				return lipgloss.NewStyle()
			}
			switch status[ops[row].ID].Status {
			case planner.StatusApplied:
				return StyleSuccess
			case planner.StatusBlocked:
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return StyleDim
		})
	fmt.Fprintln(p.w, t.Render())
}

// =============================================================================
// Formatting
// =============================================================================

func formatProps(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(parts, " ")
}

func totalWarnings(s compose.Stats) int {
	n := 0
	for _, v := range s.Warnings {
		n += v
	}
	return n
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
