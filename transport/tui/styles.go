package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Classic 2048 palette
var (
	Background = lipgloss.Color("#faf8ef")
	GridColor  = lipgloss.Color("#bbada0")
	TextDark   = lipgloss.Color("#776e65")
	TextLight  = lipgloss.Color("#f9f6f2")
	ButtonTone = lipgloss.Color("#8f7a66")

	// Tiles above the last entry share SuperTile
	SuperTile = lipgloss.Color("#3c3a32")
)

var tileColors = map[int]lipgloss.Color{
	0:    lipgloss.Color("#cdc1b4"),
	2:    lipgloss.Color("#eee4da"),
	4:    lipgloss.Color("#ede0c8"),
	8:    lipgloss.Color("#f2b179"),
	16:   lipgloss.Color("#f59563"),
	32:   lipgloss.Color("#f67c5f"),
	64:   lipgloss.Color("#f65e3b"),
	128:  lipgloss.Color("#edcf72"),
	256:  lipgloss.Color("#edcc61"),
	512:  lipgloss.Color("#edc850"),
	1024: lipgloss.Color("#edc53f"),
	2048: lipgloss.Color("#edc22e"),
}

// TileColor returns the background for a tile value
func TileColor(value int) lipgloss.Color {
	if c, ok := tileColors[value]; ok {
		return c
	}
	return SuperTile
}

// tileForeground keeps small values dark on their pale tiles
func tileForeground(value int) lipgloss.Color {
	if value <= 4 {
		return TextDark
	}
	return TextLight
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextDark).
			MarginBottom(1)

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextLight).
			Background(GridColor).
			Padding(0, 1)

	messageStyle = lipgloss.NewStyle().
			Foreground(TextDark).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ButtonTone)

	gridStyle = lipgloss.NewStyle().
			Background(GridColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ButtonTone).
			Foreground(TextDark).
			Padding(0, 2).
			MarginTop(1)
)

func tileStyle(value, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Width(width).
		Align(lipgloss.Center).
		Foreground(tileForeground(value)).
		Background(TileColor(value))
}
