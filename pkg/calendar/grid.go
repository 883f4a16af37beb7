// Package calendar builds and renders month grids of journal dates.
package calendar

import (
	"time"

	"tableflip.dev/tranquil/pkg/entry"
)

// Cell is one slot of a month grid. Cells from the neighbouring months carry
// their real date with InCurrentMonth false.
type Cell struct {
	Date           *entry.Date
	InCurrentMonth bool
}

// BuildMonthGrid lays out a Sunday-first grid for month: the previous month's
// tail up to the weekday of the 1st, every day of the month, then enough of
// the next month to finish the last week. The result length is always a
// multiple of seven.
func BuildMonthGrid(year int, month time.Month) []Cell {
	first := entry.NewDate(year, month, 1)
	lead := int(first.Weekday())
	days := entry.DaysIn(first.Year, first.Month)
	trail := (7 - (lead+days)%7) % 7

	cells := make([]Cell, 0, lead+days+trail)
	for i := lead; i > 0; i-- {
		d := first.AddDays(-i)
		cells = append(cells, Cell{Date: &d})
	}
	for day := 1; day <= days; day++ {
		d := entry.Date{Year: first.Year, Month: first.Month, Day: day}
		cells = append(cells, Cell{Date: &d, InCurrentMonth: true})
	}
	last := entry.Date{Year: first.Year, Month: first.Month, Day: days}
	for i := 1; i <= trail; i++ {
		d := last.AddDays(i)
		cells = append(cells, Cell{Date: &d})
	}
	return cells
}

// Weeks splits a grid into rows of seven.
func Weeks(cells []Cell) [][]Cell {
	rows := make([][]Cell, 0, len(cells)/7)
	for i := 0; i+7 <= len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows
}
