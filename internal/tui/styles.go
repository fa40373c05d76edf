package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/hats/internal/hats"
)

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warnBoxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("178")).
			Padding(0, 1)

	synthesisStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("33")).
			PaddingTop(1)

	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	focusedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

// hatColors are the tab colors of each perspective.
var hatColors = map[hats.Perspective]lipgloss.Color{
	hats.White:  lipgloss.Color("255"),
	hats.Red:    lipgloss.Color("203"),
	hats.Black:  lipgloss.Color("236"),
	hats.Yellow: lipgloss.Color("221"),
	hats.Green:  lipgloss.Color("78"),
	hats.Blue:   lipgloss.Color("69"),
}

// tabStyle returns the active tab style for p, with dark text on light hats.
func tabStyle(p hats.Perspective) lipgloss.Style {
	fg := lipgloss.Color("15")
	if p == hats.White || p == hats.Yellow {
		fg = lipgloss.Color("235")
	}
	return activeTabStyle.Background(hatColors[p]).Foreground(fg)
}
