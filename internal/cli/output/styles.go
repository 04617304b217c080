package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Key      lipgloss.Style
	Relation lipgloss.Style
}

// NewStyles builds styles bound to lr's color profile.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Title:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header:   lr.NewStyle().Bold(true).Underline(true),
		Success:  lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    lr.NewStyle().Foreground(lipgloss.Color("9")),
		Info:     lr.NewStyle().Foreground(lipgloss.Color("14")),
		Muted:    lr.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:     lr.NewStyle().Bold(true),
		Key:      lr.NewStyle().Foreground(lipgloss.Color("14")),
		Relation: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
	}
}
