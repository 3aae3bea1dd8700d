package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pagesetter/pkg/planner"
)

var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PlanModel - Interactive operation selection
// =============================================================================

// PlanModel is the bubbletea model for picking plan operations to apply.
// Pending operations start selected; blocked and applied ones cannot be
// selected.
type PlanModel struct {
	Operations []planner.Operation
	Status     []planner.Status
	Chosen     []bool
	Cursor     int
	Offset     int
	Height     int
	Confirmed  bool
}

// NewPlanModel creates a plan model. entries must be the diff of ops, in
// order.
func NewPlanModel(ops []planner.Operation, entries []planner.DiffEntry) PlanModel {
	m := PlanModel{
		Operations: ops,
		Status:     make([]planner.Status, len(ops)),
		Chosen:     make([]bool, len(ops)),
		Height:     12,
	}
	for i := range ops {
		m.Status[i] = planner.StatusPending
		if i < len(entries) {
			m.Status[i] = entries[i].Status
		}
		m.Chosen[i] = m.Status[i] == planner.StatusPending
	}
	return m
}

// Selected returns the chosen operations in plan order.
func (m PlanModel) Selected() []planner.Operation {
	var out []planner.Operation
	for i, op := range m.Operations {
		if m.Chosen[i] {
			out = append(out, op)
		}
	}
	return out
}

func (m PlanModel) selectable(i int) bool {
	return m.Status[i] == planner.StatusPending
}

func (m PlanModel) Init() tea.Cmd {
	return nil
}

func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Operations)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Operations) > 0 && m.selectable(m.Cursor) {
				m.Chosen = toggled(m.Chosen, m.Cursor)
			}
		case "a":
			all := true
			for i := range m.Operations {
				if m.selectable(i) && !m.Chosen[i] {
					all = false
				}
			}
			chosen := make([]bool, len(m.Chosen))
			for i := range m.Operations {
				chosen[i] = !all && m.selectable(i)
			}
			m.Chosen = chosen
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 3)
	}
	return m, nil
}

// toggled returns a copy of b with index i flipped, so earlier model
// values stay unchanged.
func toggled(b []bool, i int) []bool {
	out := append([]bool(nil), b...)
	out[i] = !out[i]
	return out
}

func (m PlanModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Operations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ␣ toggle  a all  ⏎ apply  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Operations))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		op := m.Operations[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		switch {
		case !m.selectable(i):
			box = " - "
		case m.Chosen[i]:
			box = "[x]"
		}
		rows = append(rows, []string{cursor + box, op.NodeID, formatProps(op.Props), string(m.Status[i])})
	}

	t := newTable("", "Node", "Patch", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			i := m.Offset + row
			if i >= len(m.Operations) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if !m.selectable(i) {
				base = base.Foreground(colorDim)
			} else if m.Chosen[i] {
				base = base.Foreground(colorGreen)
			}
			if i == m.Cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(m.Operations) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.Operations), m.Operations[m.Cursor].Label)))
	}
	return b.String()
}
