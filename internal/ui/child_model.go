// Package ui holds the contracts shared by colkit's terminal views.
package ui

import tea "charm.land/bubbletea/v2"

// ChildModel is a view hosted by a root model, which routes messages to it.
type ChildModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (ChildModel, tea.Cmd)
	View() string
}

// ModelWithTitle supplies a header title.
type ModelWithTitle interface {
	Title() string
}

// ModelWithSize responds to resize events.
type ModelWithSize interface {
	SetSize(width, height int)
}

// ModelWithFocus handles focus changes when switching panes.
type ModelWithFocus interface {
	Focus() tea.Cmd
	Blur()
	Focused() bool
}
