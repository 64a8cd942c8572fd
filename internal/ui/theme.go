package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Theme holds the colors the terminal views use.
type Theme struct {
	HeaderFG       color.Color
	SelectedFG     color.Color
	SelectedBG     color.Color
	SeparatorColor color.Color
	StatusColor    color.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() Theme {
	return Theme{
		HeaderFG:       lipgloss.Color("12"),
		SelectedFG:     lipgloss.Color("15"),
		SelectedBG:     lipgloss.Color("62"),
		SeparatorColor: lipgloss.Color("240"),
		StatusColor:    lipgloss.Color("245"),
	}
}
