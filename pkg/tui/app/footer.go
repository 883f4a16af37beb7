package teaui

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/tranquil/pkg/auth"
	"tableflip.dev/tranquil/pkg/tui/theme"
)

var tabs = []struct {
	key   string
	label string
	path  string
}{
	{"F1", "Journal", auth.PathJournal},
	{"F2", "Reflect", auth.PathReflection},
	{"F3", "Summary", auth.PathSummary},
}

// footer renders the tab strip, the contextual help line and the status.
type footer struct {
	theme theme.FooterTheme
}

func newFooter(t theme.FooterTheme) footer {
	return footer{theme: t}
}

func (f footer) view(width int, route string, signedIn bool, help, status string) string {
	var lines []string
	if signedIn {
		parts := make([]string, 0, len(tabs))
		for _, t := range tabs {
			label := t.key + " " + t.label
			if t.path == route {
				parts = append(parts, f.theme.ActiveTab.Render(label))
			} else {
				parts = append(parts, f.theme.Tab.Render(label))
			}
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	if help != "" {
		lines = append(lines, f.theme.Help.Render(clip(help, width)))
	}
	if status != "" {
		style := f.theme.Status
		if status == msgExpired {
			style = f.theme.Error
		}
		lines = append(lines, style.Render(clip(status, width)))
	}
	return strings.Join(lines, "\n")
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}
