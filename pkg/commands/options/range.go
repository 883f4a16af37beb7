package options

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/timeutil"
)

// RangeOptions selects a date range, defaulting to the current month.
type RangeOptions struct {
	From string
	To   string
	Last string
}

func AddRangeArgs(cmd *cobra.Command, o *RangeOptions) {
	cmd.Flags().StringVar(&o.From, "from", "", "First day of the range. Defaults to the start of this month.")
	cmd.Flags().StringVar(&o.To, "to", "", "Last day of the range. Defaults to today.")
	cmd.Flags().StringVar(&o.Last, "last", "", `Window ending today instead of --from, example: --last=2w or --last=10d.`)
}

func (o *RangeOptions) GetRange(loc *time.Location) (entry.Date, entry.Date, error) {
	today := entry.Today(loc)
	start := calendar.MonthOf(today).First()
	end := today
	var err error
	if o.Last != "" {
		if o.From != "" {
			return entry.Date{}, entry.Date{}, fmt.Errorf("--last and --from cannot be combined")
		}
		days, _, err := timeutil.ParseWindow(o.Last)
		if err != nil {
			return entry.Date{}, entry.Date{}, err
		}
		start = today.AddDays(1 - days)
	}
	if o.From != "" {
		if start, err = ParseDay(o.From, today); err != nil {
			return entry.Date{}, entry.Date{}, err
		}
	}
	if o.To != "" {
		if end, err = ParseDay(o.To, today); err != nil {
			return entry.Date{}, entry.Date{}, err
		}
	}
	if end.Before(start) {
		return entry.Date{}, entry.Date{}, fmt.Errorf("--to %s is before --from %s", end, start)
	}
	return start, end, nil
}

// MonthOptions selects a calendar month.
type MonthOptions struct {
	Month string
}

func AddMonthArgs(cmd *cobra.Command, o *MonthOptions) {
	cmd.Flags().StringVar(&o.Month, "month", "", `Month to show, example: --month="March 2025" or --month=2025-03.`)
}

func (o *MonthOptions) GetMonth(loc *time.Location) (calendar.Month, error) {
	if o.Month == "" {
		return calendar.MonthOf(entry.Today(loc)), nil
	}
	m, ok := calendar.ParseMonth(o.Month)
	if !ok {
		return calendar.Month{}, fmt.Errorf("invalid month %q", o.Month)
	}
	return m, nil
}
