package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/entry"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// OnOptions selects a single journal date.
type OnOptions struct {
	OnString string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions) {
	cmd.Flags().StringVar(&o.OnString, "on", "",
		`Journal date, example: --on=2025-2-28, --on=2/28, --on=yesterday. Defaults to today.`)
}

// GetOn resolves the flag against today in loc. A short date without a
// year means the most recent such day, never one in the future.
func (o *OnOptions) GetOn(loc *time.Location) (entry.Date, error) {
	return ParseDay(o.OnString, entry.Today(loc))
}

// ParseDay parses a user-entered date relative to today.
func ParseDay(v string, today entry.Date) (entry.Date, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	if t, err := time.Parse(layoutISO, v); err == nil {
		return entry.DateOf(t), nil
	}
	t, err := time.Parse(layoutISOShort, v)
	if err != nil {
		return entry.Date{}, fmt.Errorf("invalid date %q: use YYYY-M-D, M/D, today or yesterday", v)
	}
	d := entry.NewDate(today.Year, t.Month(), t.Day())
	if d.After(today) {
		d = entry.NewDate(today.Year-1, t.Month(), t.Day())
	}
	return d, nil
}
