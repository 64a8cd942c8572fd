package table

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/colkit/internal/search"
	"github.com/oakwood-commons/colkit/pkg/columns"
)

func visible() []columns.VisibleColumn {
	return []columns.VisibleColumn{
		{ID: "name", Label: "Name", Fixed: columns.FixedLeft, Column: columns.Column{Prop: "name"}},
		{ID: "team", Label: "Team", Column: columns.Column{Prop: "team", Width: 12}},
		{ID: "age", Label: "Age", Column: columns.Column{Prop: "age"}},
	}
}

func rows() []search.Row {
	return []search.Row{
		{"name": "alice", "team": "platform", "age": 34.0, "secret": "x1"},
		{"name": "bob", "team": "data", "age": 27.5, "secret": "x2"},
		{"name": "carol", "team": "platform", "age": nil, "secret": "x3"},
	}
}

func TestColumnsFor(t *testing.T) {
	cols := ColumnsFor(visible(), rows(), 4)
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[0].Title != "Name" || cols[0].Width != 4 {
		t.Fatalf("expected Name capped at 4, got %+v", cols[0])
	}
	if cols[1].Width != 12 {
		t.Fatalf("declared width should win, got %d", cols[1].Width)
	}
	if cols[2].Width != 4 {
		t.Fatalf("expected age width 4 (\"27.5\"), got %d", cols[2].Width)
	}

	narrow := ColumnsFor([]columns.VisibleColumn{{ID: "x", Label: "X"}}, nil, 0)
	if narrow[0].Width != minColumnWidth {
		t.Fatalf("expected min width %d, got %d", minColumnWidth, narrow[0].Width)
	}
}

func TestCells(t *testing.T) {
	got := Cells(visible(), rows()[0])
	want := Row{"alice", "platform", "34"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Cells() = %v, want %v", got, want)
	}
	if got := Cells(visible(), rows()[2]); got[2] != "" {
		t.Fatalf("nil cell should render empty, got %q", got[2])
	}
	byID := Cells([]columns.VisibleColumn{{ID: "secret"}}, rows()[1])
	if byID[0] != "x2" {
		t.Fatalf("column without prop should read its id, got %q", byID[0])
	}
}

func TestRenderShowsOnlyVisibleColumns(t *testing.T) {
	m := NewModel(visible())
	m.SetNoColor(true)
	m.SetRows(rows())

	out := m.Render()
	for _, want := range []string{"Name", "Team", "Age", "alice", "carol", "27.5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in render:\n%s", want, out)
		}
	}
	if strings.Contains(out, "x1") {
		t.Fatalf("hidden field leaked into render:\n%s", out)
	}
	if strings.Index(out, "Name") > strings.Index(out, "Team") {
		t.Fatalf("columns out of engine order:\n%s", out)
	}

	m.SetVisibleColumns(visible()[1:])
	if strings.Contains(m.Render(), "Name") {
		t.Fatalf("expected Name column dropped after projection change")
	}
}

func TestFilterMatchesShownCells(t *testing.T) {
	m := NewModel(visible())
	m.SetRows(rows())

	m.SetFilter("PLAT")
	if got := len(m.Rows()); got != 2 {
		t.Fatalf("expected 2 rows for 'PLAT', got %d", got)
	}
	m.SetFilter("x2")
	if got := len(m.Rows()); got != 0 {
		t.Fatalf("hidden fields must not match, got %d rows", got)
	}
	m.ClearFilter()
	if len(m.Rows()) != 3 || len(m.AllRows()) != 3 {
		t.Fatalf("expected all rows after clear")
	}
}

func TestCursorSelection(t *testing.T) {
	m := NewModel(visible())
	m.SetRows(rows())

	if sel := m.SelectedRow(); sel == nil || sel["name"] != "alice" {
		t.Fatalf("expected first row selected, got %v", sel)
	}
	m.SetCursor(1)
	if sel := m.SelectedRow(); sel == nil || sel["name"] != "bob" {
		t.Fatalf("expected second row selected, got %v", sel)
	}
	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Cursor() > 2 {
		t.Fatalf("cursor out of bounds: %d", m.Cursor())
	}
}

func TestSizeFocusAndString(t *testing.T) {
	m := NewModel(visible())
	m.SetRows(rows())
	m.SetSize(60, 8)
	if m.Height() <= 0 || m.Width() <= 0 {
		t.Fatalf("expected non-zero dimensions, got h=%d w=%d", m.Height(), m.Width())
	}
	m.Blur()
	if m.Focused() {
		t.Fatalf("expected blurred table")
	}
	m.Focus()
	if !m.Focused() {
		t.Fatalf("expected focused table")
	}
	if !strings.Contains(m.String(), "columns=3") {
		t.Fatalf("unexpected String(): %s", m.String())
	}
	m.SetMaxColumnWidth(0)
	if m.maxWidth != DefaultMaxColumnWidth {
		t.Fatalf("expected reset to default width, got %d", m.maxWidth)
	}
}
