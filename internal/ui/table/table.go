// Package table renders row data through the visible column projection of a
// column settings state, on top of the bubbles table component.
package table

import (
	"fmt"
	"image/color"

	bubtable "charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/colkit/internal/search"
	"github.com/oakwood-commons/colkit/pkg/columns"
)

// Re-export so callers need not import bubbles.
type Column = bubtable.Column
type Row = bubtable.Row

const (
	minColumnWidth = 3
	// DefaultMaxColumnWidth caps content-sized columns.
	DefaultMaxColumnWidth = 40
)

// Model displays rows under a set of visible columns with type-ahead
// filtering over the shown cells.
type Model struct {
	table   bubtable.Model
	styles  bubtable.Styles
	visible []columns.VisibleColumn
	rows    []search.Row
	filter  string

	filtered []search.Row
	maxWidth int

	width   int
	height  int
	focused bool
	noColor bool

	headerFG   color.Color
	selectedFG color.Color
	selectedBG color.Color
}

// NewModel creates a table for the given visible columns.
func NewModel(visible []columns.VisibleColumn) *Model {
	t := bubtable.New(
		bubtable.WithFocused(true),
		bubtable.WithHeight(5),
	)

	s := bubtable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Bold(true).
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(1)
	s.Selected = s.Selected.
		PaddingLeft(0).
		PaddingRight(0)
	s.Cell = lipgloss.NewStyle().
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(1)
	t.SetStyles(s)

	m := &Model{
		table:    t,
		styles:   s,
		maxWidth: DefaultMaxColumnWidth,
		width:    80,
		height:   10,
		focused:  true,
	}
	m.visible = visible
	m.refresh()
	return m
}

// SetVisibleColumns replaces the column projection, e.g. after the column
// settings changed.
func (m *Model) SetVisibleColumns(visible []columns.VisibleColumn) {
	m.visible = visible
	m.refresh()
}

// VisibleColumns returns the current projection.
func (m *Model) VisibleColumns() []columns.VisibleColumn {
	return m.visible
}

// SetMaxColumnWidth caps content-sized columns. Values below 1 reset to the
// default.
func (m *Model) SetMaxColumnWidth(w int) {
	if w < 1 {
		w = DefaultMaxColumnWidth
	}
	m.maxWidth = w
	m.refresh()
}

// SetRows replaces the row data.
func (m *Model) SetRows(rows []search.Row) {
	m.rows = rows
	m.refresh()
}

// Rows returns the rows left after filtering.
func (m *Model) Rows() []search.Row {
	return m.filtered
}

// AllRows returns all unfiltered rows.
func (m *Model) AllRows() []search.Row {
	return m.rows
}

// SetFilter filters rows to those with a shown cell containing filter.
func (m *Model) SetFilter(filter string) {
	m.filter = filter
	m.refresh()
}

// Filter returns the current filter text.
func (m *Model) Filter() string {
	return m.filter
}

// ClearFilter shows all rows again.
func (m *Model) ClearFilter() {
	m.SetFilter("")
}

// Columns returns the bubbles columns built for the current projection.
func (m *Model) Columns() []Column {
	return ColumnsFor(m.visible, m.filtered, m.maxWidth)
}

// refresh rebuilds columns and rows; bubbles requires columns to be set
// before rows of the same width.
func (m *Model) refresh() {
	m.filtered = search.Text(m.rows, keysOf(m.visible), m.filter)

	m.table.SetRows(nil)
	m.table.SetColumns(ColumnsFor(m.visible, m.filtered, m.maxWidth))
	tableRows := make([]Row, len(m.filtered))
	for i, r := range m.filtered {
		tableRows[i] = Cells(m.visible, r)
	}
	m.table.SetRows(tableRows)
	m.applyColorScheme()

	if m.Cursor() >= len(m.filtered) && len(m.filtered) > 0 {
		m.SetCursor(0)
	}
}

// ColumnsFor sizes one bubbles column per visible column: the schema width
// when declared, otherwise the widest of header and cells capped at maxWidth.
func ColumnsFor(visible []columns.VisibleColumn, rows []search.Row, maxWidth int) []Column {
	out := make([]Column, len(visible))
	for i, vc := range visible {
		w := vc.Column.Width
		if w <= 0 {
			w = runewidth.StringWidth(vc.Label)
			key := KeyOf(vc)
			for _, r := range rows {
				w = max(w, runewidth.StringWidth(cellText(r[key])))
			}
			if maxWidth > 0 {
				w = min(w, maxWidth)
			}
		}
		out[i] = Column{Title: vc.Label, Width: max(w, minColumnWidth)}
	}
	return out
}

// Cells renders one row in visible-column order.
func Cells(visible []columns.VisibleColumn, r search.Row) Row {
	row := make(Row, len(visible))
	for i, vc := range visible {
		row[i] = cellText(r[KeyOf(vc)])
	}
	return row
}

// KeyOf is the row field a column reads: its prop, else its id.
func KeyOf(vc columns.VisibleColumn) string {
	if vc.Column.Prop != "" {
		return vc.Column.Prop
	}
	return vc.ID
}

func keysOf(visible []columns.VisibleColumn) []string {
	keys := make([]string, len(visible))
	for i, vc := range visible {
		keys[i] = KeyOf(vc)
	}
	return keys
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	}
	return fmt.Sprint(v)
}

// Cursor returns the current cursor position.
func (m *Model) Cursor() int {
	return m.table.Cursor()
}

// SetCursor sets the cursor position.
func (m *Model) SetCursor(pos int) {
	m.table.SetCursor(pos)
}

// SelectedRow returns the row under the cursor, or nil.
func (m *Model) SelectedRow() search.Row {
	cursor := m.Cursor()
	if cursor < 0 || cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[cursor]
}

// SetSize sets the table dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(height)
}

// Focus sets the table focus state.
func (m *Model) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes focus from the table.
func (m *Model) Blur() {
	m.focused = false
	m.table.Blur()
}

// Focused returns true if the table has focus.
func (m *Model) Focused() bool {
	return m.focused
}

// SetNoColor enables/disables color output.
func (m *Model) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.applyColorScheme()
}

// SetColors sets custom theme colors.
func (m *Model) SetColors(headerFG, selectedFG, selectedBG color.Color) {
	m.headerFG = headerFG
	m.selectedFG = selectedFG
	m.selectedBG = selectedBG
	m.applyColorScheme()
}

func (m *Model) applyColorScheme() {
	s := m.styles

	if m.noColor {
		s.Header = s.Header.UnsetForeground().UnsetBackground()
		s.Selected = s.Selected.UnsetForeground().UnsetBackground().Reverse(true)
		s.Cell = s.Cell.UnsetForeground().UnsetBackground()
	} else {
		if m.headerFG != nil {
			s.Header = s.Header.Foreground(m.headerFG)
		}
		if m.selectedFG != nil {
			s.Selected = s.Selected.Foreground(m.selectedFG)
		}
		if m.selectedBG != nil {
			s.Selected = s.Selected.Background(m.selectedBG)
		}
	}

	m.table.SetStyles(s)
	m.styles = s
}

// Update handles messages and updates the table state.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table to a string.
func (m *Model) View() string {
	return m.table.View()
}

// Render returns the whole table for non-interactive output, sizing the
// viewport to fit every row.
func (m *Model) Render() string {
	m.table.SetHeight(len(m.filtered) + 2)
	defer m.table.SetHeight(m.height)
	m.table.Blur()
	defer func() {
		if m.focused {
			m.table.Focus()
		}
	}()
	return m.table.View()
}

// Height returns the rendered height of the table (including header).
func (m *Model) Height() int {
	return lipgloss.Height(m.View())
}

// Width returns the rendered width of the table.
func (m *Model) Width() int {
	return lipgloss.Width(m.View())
}

// String returns a string representation for debugging.
func (m *Model) String() string {
	return fmt.Sprintf("Table[columns=%d, rows=%d, filtered=%d, cursor=%d, filter=%q]",
		len(m.visible), len(m.rows), len(m.filtered), m.Cursor(), m.filter)
}
