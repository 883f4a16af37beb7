package app

import (
	"context"
	"fmt"

	"tableflip.dev/tranquil/pkg/entry"
)

// ReportMonth counts entries written in one month of the window.
type ReportMonth struct {
	Year  int
	Month string
	Days  []entry.Date
}

// ReportResult summarizes journaling activity between two dates.
type ReportResult struct {
	Since   entry.Date
	Until   entry.Date
	Months  []ReportMonth
	Total   int
	Streak  int
	Longest int
}

// Report groups the dates with entries in [since, until] by month. Streak
// counts consecutive days ending at until (or the day before, so a day not
// yet written does not break it); Longest is the best run in the window.
func (a *App) Report(ctx context.Context, since, until entry.Date) (ReportResult, error) {
	if until.Before(since) {
		since, until = until, since
	}
	if err := a.Journal.Load(ctx); err != nil {
		return ReportResult{}, err
	}
	return buildReport(a.Journal.Index().Dates(), since, until), nil
}

func buildReport(dates []entry.Date, since, until entry.Date) ReportResult {
	res := ReportResult{Since: since, Until: until}
	have := make(map[entry.Date]bool, len(dates))
	run := 0
	var prev entry.Date
	for _, d := range dates {
		if d.Before(since) || d.After(until) {
			continue
		}
		have[d] = true
		res.Total++

		if n := len(res.Months); n == 0 || res.Months[n-1].Year != d.Year || res.Months[n-1].Month != d.Month.String() {
			res.Months = append(res.Months, ReportMonth{Year: d.Year, Month: d.Month.String()})
		}
		m := &res.Months[len(res.Months)-1]
		m.Days = append(m.Days, d)

		if run > 0 && prev.AddDays(1) == d {
			run++
		} else {
			run = 1
		}
		if run > res.Longest {
			res.Longest = run
		}
		prev = d
	}

	day := until
	if !have[day] {
		day = day.AddDays(-1)
	}
	for have[day] {
		res.Streak++
		day = day.AddDays(-1)
	}
	return res
}

// String renders r as a one-line summary.
func (r ReportResult) String() string {
	noun := "entries"
	if r.Total == 1 {
		noun = "entry"
	}
	return fmt.Sprintf("%d %s from %s to %s, current streak %d, longest %d",
		r.Total, noun, r.Since, r.Until, r.Streak, r.Longest)
}
