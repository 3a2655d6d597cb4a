package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the form view.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Touched  lipgloss.Style
	Muted    lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Potable  lipgloss.Style
	Rejected lipgloss.Style
	Result   lipgloss.Style
}

// DefaultStyles uses the 16-color ANSI palette so the form reads on light and
// dark terminals alike.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Label:    lipgloss.NewStyle().Width(labelWidth),
		Focused:  lipgloss.NewStyle().Width(labelWidth).Bold(true).Foreground(lipgloss.Color("4")),
		Touched:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Muted:    lipgloss.NewStyle().Faint(true),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Potable:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		Rejected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		Result:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

const labelWidth = 40
