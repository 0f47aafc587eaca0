package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/prabalesh/osdash/internal/models"
)

var (
	// Base styles
	BaseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	// Header styles
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Underline(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	// Tab styles
	TabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Margin(0, 1)

	ActiveTabStyle = TabStyle.
			Foreground(lipgloss.Color("36")).
			Bold(true).
			Underline(true)

	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("241"))

	// Data styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	// Status styles
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	ScrollHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	// Gantt and memory map cells
	FreeBlockStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("245"))

	IdleBlockStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Foreground(lipgloss.Color("250"))
)

var blockPalette = []lipgloss.Color{"#FF5733", "#33FF57", "#3357FF", "#FF33F5", "#F5FF33", "#33F5FF"}

func blockStyle(pid string, colors map[string]int) lipgloss.Style {
	i, ok := colors[pid]
	if pid == models.IdleID || !ok {
		return IdleBlockStyle
	}
	return lipgloss.NewStyle().
		Background(blockPalette[i%len(blockPalette)]).
		Foreground(lipgloss.Color("16")).
		Bold(true)
}

func DetectionStyle(status models.DetectionStatus) lipgloss.Style {
	switch status {
	case models.Safe:
		return SuccessStyle.Bold(true)
	case models.Deadlocked:
		return ErrorStyle.Bold(true)
	default:
		return WarningStyle
	}
}

func TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Foreground(lipgloss.Color("205")).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	return s
}
