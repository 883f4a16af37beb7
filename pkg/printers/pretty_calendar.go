package printers

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
)

const width = len("Su Mo Tu We Th Fr Sa")

// Calendar prints month with days that have an entry in bold and today
// underlined. Days outside the month are left blank.
func (pp *PrettyPrint) Calendar(month calendar.Month, today entry.Date, idx *calendar.Index) {
	tf := color.New(color.FgWhite, color.Italic)
	title := month.String()
	mid := (width - len(title)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = tf.Fprintf(pp.out(), "%s%s\n", strings.Repeat(" ", mid), title)
	_, _ = color.New(color.Faint).Fprintln(pp.out(), "Su Mo Tu We Th Fr Sa")

	plain := color.New(color.Faint, color.FgWhite)
	written := color.New(color.Bold, color.FgHiWhite)

	days := calendar.Decorate(month, today, entry.Date{}, idx)
	for i, d := range days {
		switch {
		case !d.InMonth:
			_, _ = fmt.Fprint(pp.out(), "  ")
		default:
			p := plain
			if d.HasEntry {
				p = written
			}
			if d.IsToday {
				p = color.New(color.Underline)
				if d.HasEntry {
					p.Add(color.Bold)
				}
			}
			_, _ = p.Fprintf(pp.out(), "%2d", d.Date.Day)
		}
		if (i+1)%7 == 0 {
			_, _ = fmt.Fprintln(pp.out())
		} else {
			_, _ = fmt.Fprint(pp.out(), " ")
		}
	}
	pp.NewLine()
}

// CalendarCount prints how many entries month holds.
func (pp *PrettyPrint) CalendarCount(month calendar.Month, idx *calendar.Index) {
	n := len(idx.InMonth(month.Year, month.Month))
	c := color.New(color.Faint)
	_, _ = c.Fprintf(pp.out(), "%d of %d days written\n\n", n, entry.DaysIn(month.Year, month.Month))
}
