// Package picker is the interactive column settings editor.
package picker

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/colkit/internal/ui"
	"github.com/oakwood-commons/colkit/pkg/columns"
)

// ColumnsChangedMsg carries the visible columns after any edit.
type ColumnsChangedMsg struct {
	Visible []columns.VisibleColumn
}

// VisibleColumns returns the new projection.
func (m ColumnsChangedMsg) VisibleColumns() []columns.VisibleColumn { return m.Visible }

// SavedMsg is sent after the settings were saved.
type SavedMsg struct {
	Visible []columns.VisibleColumn
}

// VisibleColumns returns the saved projection.
func (m SavedMsg) VisibleColumns() []columns.VisibleColumn { return m.Visible }

// Model edits a column settings state.
type Model struct {
	ctx    context.Context
	state  *columns.State
	cursor int
	status string

	width   int
	height  int
	focused bool
	noColor bool
}

var _ ui.ChildModel = (*Model)(nil)

// New returns a picker over state. ctx is used for persistence calls.
func New(ctx context.Context, state *columns.State) *Model {
	return &Model{ctx: ctx, state: state, width: 60, height: 20, focused: true}
}

// Init implements ui.ChildModel.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements ui.ChildModel.
func (m *Model) Update(msg tea.Msg) (ui.ChildModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	settings := m.state.Settings()
	if len(settings) == 0 {
		return m, nil
	}
	m.clampCursor(len(settings))
	current := settings[m.cursor]

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(settings)-1 {
			m.cursor++
		}
		return m, nil
	case "space", " ":
		m.state.SetVisible(current.ID, !current.Show)
		m.status = ""
	case "a":
		m.state.SetAllVisible(true)
		m.status = "all columns shown"
	case "A":
		m.state.SetAllVisible(false)
		m.status = "all columns hidden"
	case "[", "]":
		target := m.cursor - 1
		if key.String() == "]" {
			target = m.cursor + 1
		}
		if target < 0 || target >= len(settings) {
			return m, nil
		}
		related := settings[target]
		if !m.state.Move(current.ID, related.ID) {
			m.status = fmt.Sprintf("cannot move %s past %s", current.Label, related.Label)
			return m, nil
		}
		m.status = ""
		m.follow(current.ID)
	case "l", "r":
		side := columns.FixedLeft
		if key.String() == "r" {
			side = columns.FixedRight
		}
		if current.Pinned {
			m.status = fmt.Sprintf("%s is pinned", current.Label)
			return m, nil
		}
		m.state.ToggleFixed(current.ID, side)
		m.status = ""
		m.follow(current.ID)
	case "R":
		m.state.Reset(m.ctx)
		m.cursor = 0
		m.status = "column settings reset"
	case "s":
		var saved []columns.VisibleColumn
		m.state.Save(m.ctx, func(v []columns.VisibleColumn) { saved = v })
		m.status = columns.SavedMessage
		return m, func() tea.Msg { return SavedMsg{Visible: saved} }
	default:
		return m, nil
	}
	return m, m.changed()
}

func (m *Model) changed() tea.Cmd {
	visible := m.state.VisibleColumns()
	return func() tea.Msg { return ColumnsChangedMsg{Visible: visible} }
}

// follow moves the cursor to the column with id after a reorder.
func (m *Model) follow(id string) {
	for i, s := range m.state.Settings() {
		if s.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *Model) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements ui.ChildModel. The list scrolls to keep the cursor inside
// the height set by SetSize and lines are cut at its width.
func (m *Model) View() string {
	var b strings.Builder

	settings := m.state.Settings()
	m.clampCursor(len(settings))
	labelWidth := 0
	for _, s := range settings {
		labelWidth = max(labelWidth, lipgloss.Width(s.Label))
	}
	muted := m.style(lipgloss.NewStyle().Foreground(lipgloss.Color("240")))
	selected := m.style(lipgloss.NewStyle().Reverse(true))

	footer := 1
	if m.status != "" {
		footer += 2
	}
	start, end := listWindow(m.cursor, len(settings), m.height-footer)
	for i := start; i < end; i++ {
		s := settings[i]
		check := "[ ]"
		if s.Show {
			check = "[x]"
		}
		line := check + " " + s.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(s.Label))
		if marks := markers(s); marks != "" {
			line += " " + muted.Render(marks)
		}
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
			if m.focused {
				line = selected.Render(line)
			}
		}
		b.WriteString(prefix + line + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.style(lipgloss.NewStyle().Foreground(lipgloss.Color("11"))).Render(m.status) + "\n")
	}
	b.WriteString(muted.Render("space toggle · a/A all · [ ] move · l/r fix · R reset · s save"))
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

// listWindow returns the [start, end) slice of n rows that fits in rows lines
// and contains cursor. rows < 1 shows one row.
func listWindow(cursor, n, rows int) (int, int) {
	rows = max(rows, 1)
	if n <= rows {
		return 0, n
	}
	start := max(cursor-rows+1, 0)
	return start, min(start+rows, n)
}

func markers(s columns.Setting) string {
	var parts []string
	switch s.Fixed {
	case columns.FixedLeft:
		parts = append(parts, "fixed:left")
	case columns.FixedRight:
		parts = append(parts, "fixed:right")
	}
	if s.Pinned {
		parts = append(parts, "pinned")
	}
	if !s.Sort {
		parts = append(parts, "locked")
	}
	return strings.Join(parts, " ")
}

func (m *Model) style(s lipgloss.Style) lipgloss.Style {
	if m.noColor {
		return lipgloss.NewStyle()
	}
	return s
}

// Cursor returns the highlighted row index.
func (m *Model) Cursor() int { return m.cursor }

// Status returns the last status line.
func (m *Model) Status() string { return m.status }

// State returns the edited state.
func (m *Model) State() *columns.State { return m.state }

// Title implements ui.ModelWithTitle: the storage key the edits persist
// under, or a session-only marker.
func (m *Model) Title() string {
	if key := m.state.CacheKey(); key != "" {
		return "Columns (" + key + ")"
	}
	return "Columns (session only)"
}

// SetSize implements ui.ModelWithSize. height bounds the rendered list.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetNoColor disables styling.
func (m *Model) SetNoColor(noColor bool) { m.noColor = noColor }

// Focus implements ui.ModelWithFocus.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return nil
}

// Blur implements ui.ModelWithFocus.
func (m *Model) Blur() { m.focused = false }

// Focused implements ui.ModelWithFocus.
func (m *Model) Focused() bool { return m.focused }
