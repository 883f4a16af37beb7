package calendar

import (
	"strings"
	"time"

	"tableflip.dev/tranquil/pkg/entry"
)

// Month identifies a visible calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d entry.Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

func (m Month) Prev() Month {
	first := entry.NewDate(m.Year, m.Month-1, 1)
	return Month{Year: first.Year, Month: first.Month}
}

func (m Month) Next() Month {
	first := entry.NewDate(m.Year, m.Month+1, 1)
	return Month{Year: first.Year, Month: first.Month}
}

func (m Month) Contains(d entry.Date) bool {
	return d.SameMonth(m.Year, m.Month)
}

// First returns the first day of the month.
func (m Month) First() entry.Date {
	return entry.NewDate(m.Year, m.Month, 1)
}

// Last returns the last day of the month.
func (m Month) Last() entry.Date {
	return entry.NewDate(m.Year, m.Month, entry.DaysIn(m.Year, m.Month))
}

// Clamp returns day in m, clamped to the month's length.
func (m Month) Clamp(day int) entry.Date {
	if n := entry.DaysIn(m.Year, m.Month); day > n {
		day = n
	}
	if day < 1 {
		day = 1
	}
	return entry.Date{Year: m.Year, Month: m.Month, Day: day}
}

func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// ParseMonth parses "January 2006" or "2006-01".
func ParseMonth(name string) (Month, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Month{}, false
	}
	for _, layout := range []string{"January 2006", "Jan 2006", "2006-01"} {
		if t, err := time.Parse(layout, name); err == nil {
			return Month{Year: t.Year(), Month: t.Month()}, true
		}
	}
	return Month{}, false
}
