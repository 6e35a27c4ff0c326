package report

import "github.com/charmbracelet/lipgloss"

type styles struct {
	info    lipgloss.Style
	warn    lipgloss.Style
	fatal   lipgloss.Style
	title   lipgloss.Style
	applied lipgloss.Style
	skipped lipgloss.Style
	failed  lipgloss.Style
	pending lipgloss.Style
	diff    lipgloss.Style
}

func colorStyles() styles {
	return styles{
		info:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		warn:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		fatal:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		applied: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		pending: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		diff:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
