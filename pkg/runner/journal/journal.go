// Package journal runs the journal commands.
package journal

import (
	"context"
	"errors"
	"fmt"

	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/printers"
)

// ErrEmpty is returned when the text has nothing to save.
var ErrEmpty = errors.New("nothing to save: the entry is empty")

// Write saves the entry for one date, replacing any existing one.
type Write struct {
	App     *app.App
	On      entry.Date
	Content string
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Write) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	ws := n.App.Journal
	if err := ws.Select(ctx, n.On); err != nil {
		return err
	}
	ed := ws.Editor()
	ed.Edit(n.Content)
	if err := ed.Save(ctx); err != nil {
		return err
	}
	saved, ok := ed.Entry(n.On)
	if !ok {
		return ErrEmpty
	}
	if n.JSON {
		return n.Printer.JSON(saved)
	}
	n.Printer.Success("Saved journal for %s.", n.On)
	return nil
}

// Dates lists every date with an entry.
type Dates struct {
	App     *app.App
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Dates) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	dates, err := n.App.Client.JournalDates(ctx)
	if err != nil {
		return err
	}
	idx := calendar.NewIndex(dates...)
	if n.JSON {
		return n.Printer.JSON(map[string]interface{}{"dates": idx.Dates()})
	}
	n.Printer.Dates(idx.Dates())
	return nil
}

// Calendar prints a month with written days highlighted.
type Calendar struct {
	App     *app.App
	Month   calendar.Month
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Calendar) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	ws := n.App.Journal
	if err := ws.Load(ctx); err != nil {
		return err
	}
	idx := ws.Index()
	if n.JSON {
		return n.Printer.JSON(map[string]interface{}{
			"month": n.Month.String(),
			"dates": idx.InMonth(n.Month.Year, n.Month.Month),
		})
	}
	n.Printer.Calendar(n.Month, ws.Today(), idx)
	n.Printer.CalendarCount(n.Month, idx)
	return nil
}

// Report prints writing activity for a range.
type Report struct {
	App     *app.App
	Since   entry.Date
	Until   entry.Date
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Report) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	r, err := n.App.Report(ctx, n.Since, n.Until)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(r)
	}
	n.Printer.Title(fmt.Sprintf("%s to %s", r.Since, r.Until))
	for _, m := range r.Months {
		n.Printer.TitleWithCount(fmt.Sprintf("%s %d", m.Month, m.Year), len(m.Days), "entry")
	}
	n.Printer.Text(r.String())
	return nil
}
