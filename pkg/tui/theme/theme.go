package theme

import (
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/tranquil/pkg/calendar"
)

// Theme centralizes Lip Gloss styles for the terminal UI.
type Theme struct {
	Footer     FooterTheme
	Panel      PanelTheme
	Form       FormTheme
	Transcript TranscriptTheme
	Calendar   calendar.Options
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help      lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
}

// PanelTheme styles framed panels and headings.
type PanelTheme struct {
	Frame   lipgloss.Style
	Focused lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
}

// FormTheme styles the sign-in and onboarding forms.
type FormTheme struct {
	Label   lipgloss.Style
	Focused lipgloss.Style
	Error   lipgloss.Style
	Notice  lipgloss.Style
}

// TranscriptTheme styles chat messages by role and delivery.
type TranscriptTheme struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Pending   lipgloss.Style
	Failed    lipgloss.Style
	Notice    lipgloss.Style
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	accent := lipgloss.Color("212")
	muted := lipgloss.Color("244")
	danger := lipgloss.Color("203")

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return Theme{
		Footer: FooterTheme{
			Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status:    lipgloss.NewStyle().Foreground(muted),
			Error:     lipgloss.NewStyle().Foreground(danger),
			Tab:       lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
			ActiveTab: lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1).Reverse(true),
		},
		Panel: PanelTheme{
			Frame:   frame,
			Focused: frame.BorderForeground(accent),
			Title:   lipgloss.NewStyle().Bold(true),
			Muted:   lipgloss.NewStyle().Foreground(muted),
		},
		Form: FormTheme{
			Label:   lipgloss.NewStyle().Foreground(muted),
			Focused: lipgloss.NewStyle().Foreground(accent).Bold(true),
			Error:   lipgloss.NewStyle().Foreground(danger),
			Notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		},
		Transcript: TranscriptTheme{
			User:      lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true),
			Assistant: lipgloss.NewStyle().Foreground(accent).Bold(true),
			Pending:   lipgloss.NewStyle().Foreground(muted).Italic(true),
			Failed:    lipgloss.NewStyle().Foreground(danger),
			Notice:    lipgloss.NewStyle().Foreground(danger).Italic(true),
		},
		Calendar: calendar.DefaultOptions(),
	}
}
