package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the pre-computed lipgloss styles for the chat view.
type Styles struct {
	Header    lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	ErrorText lipgloss.Style
	Footer    lipgloss.Style
	InputArea lipgloss.Style
}

// DefaultStyles returns the Air India inspired palette.
func DefaultStyles() Styles {
	red := lipgloss.Color("#C41E3A")
	gold := lipgloss.Color("#D4A843")

	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(red).
			Bold(true).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Foreground(gold).
			Bold(true),
		BotLabel: lipgloss.NewStyle().
			Foreground(red).
			Bold(true),
		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		InputArea: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1),
	}
}
