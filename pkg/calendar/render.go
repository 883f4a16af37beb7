package calendar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/tranquil/pkg/entry"
)

const weekdayHeader = "Su Mo Tu We Th Fr Sa"

// Day is a grid cell decorated for display.
type Day struct {
	Date       entry.Date
	InMonth    bool
	HasEntry   bool
	IsToday    bool
	IsSelected bool
}

// Options controls calendar styling.
type Options struct {
	TitleStyle    lipgloss.Style
	HeaderStyle   lipgloss.Style
	OutsideStyle  lipgloss.Style
	EmptyStyle    lipgloss.Style
	EntryStyle    lipgloss.Style
	TodayStyle    lipgloss.Style
	SelectedStyle lipgloss.Style
	EntryMarker   string
	ShowTitle     bool
	ShowHeader    bool
}

// Decorate marks each cell of month's grid. Only in-month cells can carry an
// entry or selection; today is flagged regardless of entries.
func Decorate(month Month, today, selected entry.Date, idx *Index) []Day {
	grid := BuildMonthGrid(month.Year, month.Month)
	days := make([]Day, 0, len(grid))
	for _, c := range grid {
		d := Day{Date: *c.Date, InMonth: c.InCurrentMonth}
		if c.InCurrentMonth {
			d.HasEntry = idx != nil && idx.Has(*c.Date)
			d.IsToday = *c.Date == today
			d.IsSelected = *c.Date == selected
		}
		days = append(days, d)
	}
	return days
}

// Render produces a multi-line calendar string for month.
func Render(month Month, today, selected entry.Date, idx *Index, opts Options) string {
	days := Decorate(month, today, selected, idx)

	var lines []string
	if opts.ShowTitle {
		lines = append(lines, opts.TitleStyle.Render(month.String()))
	}
	if opts.ShowHeader {
		lines = append(lines, opts.HeaderStyle.Render(weekdayHeader))
	}
	for row := 0; row+7 <= len(days); row += 7 {
		var b strings.Builder
		for _, d := range days[row : row+7] {
			b.WriteString(renderDay(d, opts))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}

func renderDay(d Day, opts Options) string {
	text := fmt.Sprintf("%2d", d.Date.Day)
	if !d.InMonth {
		return opts.OutsideStyle.Render(text) + " "
	}

	style := opts.EmptyStyle
	marker := " "
	if d.HasEntry {
		style = opts.EntryStyle
		marker = opts.EntryMarker
	}
	if d.IsToday {
		style = style.Inherit(opts.TodayStyle)
	}
	if d.IsSelected {
		style = style.Inherit(opts.SelectedStyle)
	}
	return style.Render(text) + marker
}

// DefaultOptions returns the styling used for calendar rendering.
func DefaultOptions() Options {
	title := lipgloss.NewStyle().Bold(true)
	header := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true)
	outside := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	empty := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	entryStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("215")).Bold(true)
	today := lipgloss.NewStyle().Underline(true)
	selected := lipgloss.NewStyle().Background(lipgloss.Color("63")).Foreground(lipgloss.Color("0"))
	return Options{
		TitleStyle:    title,
		HeaderStyle:   header,
		OutsideStyle:  outside,
		EmptyStyle:    empty,
		EntryStyle:    entryStyle,
		TodayStyle:    today,
		SelectedStyle: selected,
		EntryMarker:   "•",
		ShowTitle:     true,
		ShowHeader:    true,
	}
}
