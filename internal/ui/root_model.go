package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/colkit/internal/search"
	"github.com/oakwood-commons/colkit/internal/ui/table"
	"github.com/oakwood-commons/colkit/pkg/columns"
)

// Mode selects which pane receives key input.
type Mode int

const (
	// TableMode browses the data table.
	TableMode Mode = iota
	// ColumnsMode edits column settings in the side pane.
	ColumnsMode
	// FilterMode types a row filter.
	FilterMode
)

// ColumnsChanged is implemented by messages that carry a new visible column
// projection for the table.
type ColumnsChanged interface {
	VisibleColumns() []columns.VisibleColumn
}

// RootModel hosts the data table next to a column editor and keeps the table
// projection in step with the editor.
type RootModel struct {
	mode Mode

	table   *table.Model
	columns ChildModel

	filterInput string
	theme       Theme

	width    int
	height   int
	noColor  bool
	quitting bool
}

// NewRootModel builds a root over rows. editor edits the settings whose
// projection the table starts from.
func NewRootModel(editor ChildModel, visible []columns.VisibleColumn, rows []search.Row) *RootModel {
	t := table.NewModel(visible)
	t.SetRows(rows)
	m := &RootModel{
		mode:    TableMode,
		table:   t,
		columns: editor,
		theme:   DefaultTheme(),
		width:   80,
		height:  24,
	}
	m.applyTheme()
	m.layout()
	if f, ok := editor.(ModelWithFocus); ok {
		f.Blur()
	}
	return m
}

// SetNoColor disables styling in every pane.
func (m *RootModel) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.table.SetNoColor(noColor)
	if nc, ok := m.columns.(interface{ SetNoColor(bool) }); ok {
		nc.SetNoColor(noColor)
	}
}

// SetMaxColumnWidth caps content-sized table columns.
func (m *RootModel) SetMaxColumnWidth(w int) {
	m.table.SetMaxColumnWidth(w)
}

// Mode returns the active mode.
func (m *RootModel) Mode() Mode { return m.mode }

// Table exposes the data pane.
func (m *RootModel) Table() *table.Model { return m.table }

// Init implements tea.Model.
func (m *RootModel) Init() tea.Cmd {
	if m.columns != nil {
		return m.columns.Init()
	}
	return nil
}

// Update implements tea.Model.
func (m *RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case ColumnsChanged:
		m.table.SetVisibleColumns(msg.VisibleColumns())
		return m, nil

	case tea.KeyMsg:
		keyStr := msg.String()
		if keyStr == "ctrl+c" || msg.Key().Code == 0x03 {
			m.quitting = true
			return m, tea.Quit
		}

		switch m.mode {
		case FilterMode:
			return m, m.updateFilter(msg)

		case ColumnsMode:
			switch keyStr {
			case "tab", "esc":
				m.setMode(TableMode)
				return m, nil
			case "q":
				m.quitting = true
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.columns, cmd = m.columns.Update(msg)
			return m, cmd

		default:
			switch keyStr {
			case "tab", "c":
				m.setMode(ColumnsMode)
				return m, nil
			case "/":
				m.filterInput = m.table.Filter()
				m.setMode(FilterMode)
				return m, nil
			case "esc":
				m.table.ClearFilter()
				return m, nil
			case "q":
				m.quitting = true
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}

	if m.columns != nil {
		var cmd tea.Cmd
		m.columns, cmd = m.columns.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *RootModel) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.setMode(TableMode)
	case "esc":
		m.filterInput = ""
		m.table.ClearFilter()
		m.setMode(TableMode)
	case "backspace":
		if r := []rune(m.filterInput); len(r) > 0 {
			m.filterInput = string(r[:len(r)-1])
			m.table.SetFilter(m.filterInput)
		}
	default:
		if text := msg.Key().Text; text != "" {
			m.filterInput += text
			m.table.SetFilter(m.filterInput)
		}
	}
	return nil
}

func (m *RootModel) setMode(mode Mode) {
	m.mode = mode
	f, ok := m.columns.(ModelWithFocus)
	if mode == ColumnsMode {
		m.table.Blur()
		if ok {
			f.Focus()
		}
		return
	}
	m.table.Focus()
	if ok {
		f.Blur()
	}
}

func (m *RootModel) editorWidth() int {
	return max(28, m.width/3)
}

func (m *RootModel) layout() {
	bodyHeight := max(3, m.height-2)
	m.table.SetSize(max(10, m.width-m.editorWidth()-1), bodyHeight)
	if sized, ok := m.columns.(ModelWithSize); ok {
		editorHeight := bodyHeight
		if _, titled := m.columns.(ModelWithTitle); titled {
			editorHeight--
		}
		// one cell goes to the pane's left padding
		sized.SetSize(m.editorWidth()-1, editorHeight)
	}
}

func (m *RootModel) editorView() string {
	if m.columns == nil {
		return ""
	}
	view := m.columns.View()
	titled, ok := m.columns.(ModelWithTitle)
	if !ok {
		return view
	}
	title := lipgloss.NewStyle()
	if !m.noColor {
		title = title.Bold(true).Foreground(m.theme.HeaderFG)
	}
	return title.Render(titled.Title()) + "\n" + view
}

func (m *RootModel) applyTheme() {
	m.table.SetColors(m.theme.HeaderFG, m.theme.SelectedFG, m.theme.SelectedBG)
}

// View implements tea.Model.
func (m *RootModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	editor := m.editorView()
	pane := lipgloss.NewStyle().Width(m.editorWidth()).PaddingLeft(1)
	if !m.noColor {
		pane = pane.BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(m.theme.SeparatorColor)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), pane.Render(editor))

	v := tea.NewView(body + "\n" + m.statusLine())
	v.AltScreen = true
	return v
}

func (m *RootModel) statusLine() string {
	var parts []string
	switch m.mode {
	case FilterMode:
		parts = append(parts, "filter: "+m.filterInput+"_")
	case ColumnsMode:
		parts = append(parts, "editing columns · tab back · q quit")
	default:
		if f := m.table.Filter(); f != "" {
			parts = append(parts, "filter: "+f)
		}
		parts = append(parts, "tab columns · / filter · q quit")
	}
	line := strings.Join(parts, " · ")
	if m.noColor {
		return line
	}
	return lipgloss.NewStyle().Foreground(m.theme.StatusColor).Render(line)
}
