package tui

import "github.com/charmbracelet/lipgloss"

var (
	ActiveStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	InactiveStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	HeaderIndicatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("240")).
				Padding(0, 1)
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1)
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 1)
)

var (
	MonitorListTitle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255"))
	MonitorListSelected = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")).
				Bold(true)
	OrdinalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("105")).
			Bold(true)
	InputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("180"))
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
	HelpStyle = lipgloss.NewStyle().Padding(0, 0, 0, 2)
)
