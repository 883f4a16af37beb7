package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/reflection"
	"tableflip.dev/tranquil/pkg/summary"
)

const defaultWidth = 80

type PrettyPrint struct {
	// Out defaults to color.Output.
	Out io.Writer
	// Width wraps long text; 0 means 80 columns.
	Width int
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) width() int {
	if pp.Width <= 0 {
		return defaultWidth
	}
	return pp.Width
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d %s", count, plural(noun, count))
	_, _ = fmt.Fprintln(pp.out())
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}

// None prints the placeholder for an empty list.
func (pp *PrettyPrint) None() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Text prints a paragraph wrapped to the print width.
func (pp *PrettyPrint) Text(text string) {
	_, _ = fmt.Fprintln(pp.out(), wordwrap.String(strings.TrimSpace(text), pp.width()))
}

func (pp *PrettyPrint) Success(format string, args ...interface{}) {
	g := color.New(color.FgGreen)
	_, _ = g.Fprintf(pp.out(), format+"\n", args...)
}

// Dates lists journal dates, one per line, newest last.
func (pp *PrettyPrint) Dates(dates []entry.Date) {
	pp.TitleWithCount("Journal", len(dates), "entry")
	if len(dates) == 0 {
		pp.None()
		return
	}
	y := color.New(color.FgHiYellow)
	for _, d := range dates {
		_, _ = y.Fprintf(pp.out(), "  %s", d)
		_, _ = fmt.Fprintf(pp.out(), "  %s\n", d.Weekday().String()[:3])
	}
	pp.NewLine()
}

// Sessions prints chat sessions in a table, marking today's.
func (pp *PrettyPrint) Sessions(sessions []api.ChatSession, current string) {
	pp.TitleWithCount("Sessions", len(sessions), "session")
	if len(sessions) == 0 {
		pp.None()
		return
	}
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = uint(pp.width() / 2)
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint(""), bold.Sprint("ID"), bold.Sprint("Started"), bold.Sprint("Notes"))
	for _, s := range sessions {
		mark := " "
		if s.ID == current {
			mark = "*"
		}
		notes := ""
		if s.Notes != nil {
			notes = *s.Notes
		}
		tbl.AddRow(mark, s.ID, s.CreatedAt.Local().Format("Mon Jan 2 15:04"), faint.Sprint(notes))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Messages prints server chat messages in order.
func (pp *PrettyPrint) Messages(msgs []api.ChatMessage) {
	if len(msgs) == 0 {
		pp.None()
		return
	}
	for _, m := range msgs {
		pp.message(m.Role, m.Content, "")
	}
}

// Transcript prints a reflection transcript including pending and failed
// items.
func (pp *PrettyPrint) Transcript(items []reflection.Item) {
	if len(items) == 0 {
		pp.None()
		return
	}
	for _, it := range items {
		note := ""
		switch it.Status {
		case reflection.StatusPending:
			note = "sending"
		case reflection.StatusFailed:
			note = "failed"
		}
		pp.message(it.Role, it.Content, note)
	}
}

func (pp *PrettyPrint) message(role api.Role, content, note string) {
	who := color.New(color.FgCyan, color.Bold)
	label := "you"
	if role == api.RoleAssistant {
		who = color.New(color.FgMagenta, color.Bold)
		label = "tranquil"
	}
	_, _ = who.Fprint(pp.out(), label)
	if note != "" {
		_, _ = color.New(color.FgRed, color.Italic).Fprintf(pp.out(), " (%s)", note)
	}
	_, _ = fmt.Fprintln(pp.out())
	body := wordwrap.String(strings.TrimSpace(content), pp.width()-2)
	_, _ = fmt.Fprintln(pp.out(), indent.String(body, 2))
	pp.NewLine()
}

// Profile prints profile fields as a two-column table.
func (pp *PrettyPrint) Profile(fields []summary.Field) {
	pp.Title("Profile")
	if len(fields) == 0 {
		pp.None()
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = uint(pp.width() - 20)
	tbl.Wrap = true
	for _, f := range fields {
		for i, line := range strings.Split(f.Value, "\n") {
			label := ""
			if i == 0 {
				label = bold.Sprint(f.Label)
			}
			tbl.AddRow(label, line)
		}
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Summary prints a journal summary with its range.
func (pp *PrettyPrint) Summary(s api.JournalSummary) {
	pp.Title(fmt.Sprintf("Summary %s to %s", s.StartDate, s.EndDate))
	pp.Text(s.SummaryText)
	pp.NewLine()
}

// JSON writes v as indented JSON.
func (pp *PrettyPrint) JSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(pp.out(), string(b))
	return err
}
