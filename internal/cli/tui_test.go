package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pagesetter/pkg/planner"
)

func testPlanModel() PlanModel {
	ops := []planner.Operation{
		{ID: "op-1", NodeID: "photo", Label: "Saut de page avant"},
		{ID: "op-2", NodeID: "jobs", Label: "Autoriser la coupure"},
		{ID: "op-3", NodeID: "intro", Label: "Orphelines"},
	}
	entries := []planner.DiffEntry{
		{OperationID: "op-1", Status: planner.StatusPending},
		{OperationID: "op-2", Status: planner.StatusBlocked},
		{OperationID: "op-3", Status: planner.StatusPending},
	}
	return NewPlanModel(ops, entries)
}

func press(m PlanModel, keys ...string) (PlanModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PlanModel)
	}
	return m, cmd
}

func selectedIDs(m PlanModel) string {
	var ids []string
	for _, op := range m.Selected() {
		ids = append(ids, op.ID)
	}
	return strings.Join(ids, ",")
}

func TestPlanModelSelection(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"preselects pending", nil, "op-1,op-3"},
		{"toggle first", []string{" "}, "op-3"},
		{"toggle with x", []string{"j", "j", "x"}, "op-1"},
		{"blocked not selectable", []string{"down", " "}, "op-1,op-3"},
		{"all off", []string{"a"}, ""},
		{"all back on", []string{"a", "a"}, "op-1,op-3"},
		{"cursor clamps", []string{"up", "k", " "}, "op-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(testPlanModel(), tt.keys...)
			if got := selectedIDs(m); got != tt.want {
				t.Errorf("selected = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanModelToggleKeepsPrevious(t *testing.T) {
	before := testPlanModel()
	after, _ := press(before, " ")
	if !before.Chosen[0] || after.Chosen[0] {
		t.Error("toggle should not mutate the previous model")
	}
}

func TestPlanModelQuit(t *testing.T) {
	tests := []struct {
		key       string
		confirmed bool
	}{
		{"enter", true},
		{"q", false},
		{"esc", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, cmd := press(testPlanModel(), tt.key)
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("command is not tea.Quit")
			}
			if m.Confirmed != tt.confirmed {
				t.Errorf("Confirmed = %v, want %v", m.Confirmed, tt.confirmed)
			}
		})
	}
}

func TestPlanModelScroll(t *testing.T) {
	m := testPlanModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 2})
	m = next.(PlanModel)
	if m.Height != 3 {
		t.Fatalf("Height = %d, want minimum 3", m.Height)
	}
	m.Height = 1
	m, _ = press(m, "down", "down")
	if m.Cursor != 2 || m.Offset != 2 {
		t.Errorf("cursor = %d offset = %d, want 2 and 2", m.Cursor, m.Offset)
	}
	if !strings.Contains(m.View(), "intro") {
		t.Error("view should show the operation under the cursor")
	}
}
