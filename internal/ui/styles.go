// Package ui renders ApplicationState into a terminal frame. It holds
// no state of its own and performs no side effects: every View call is
// a pure function of the *appstate.State and the current terminal size,
// the same split the dispatcher enforces between state mutation and
// rendering (spec.md §5).
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leddt/bwtui/internal/appstate"
)

var (
	colorAccent  = lipgloss.Color("63")
	colorMuted   = lipgloss.Color("241")
	colorInfo    = lipgloss.Color("36")
	colorWarning = lipgloss.Color("214")
	colorError   = lipgloss.Color("203")
	colorBorder  = lipgloss.Color("238")

	tabActiveStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(colorAccent).
		Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 1)

	rowSelectedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	rowStyle = lipgloss.NewStyle()

	detailsBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	filterPromptStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	dialogBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(1, 3)

	dialogTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))

	errorTextStyle = lipgloss.NewStyle().Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func statusStyle(level appstate.StatusLevel) lipgloss.Style {
	switch level {
	case appstate.StatusWarning:
		return lipgloss.NewStyle().Foreground(colorWarning)
	case appstate.StatusError:
		return lipgloss.NewStyle().Foreground(colorError)
	default:
		return lipgloss.NewStyle().Foreground(colorInfo)
	}
}
