package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/reflection"
	"tableflip.dev/tranquil/pkg/summary"
)

func newPrinter(t *testing.T) (*PrettyPrint, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	var buf bytes.Buffer
	return &PrettyPrint{Out: &buf, Width: 40}, &buf
}

func TestCalendar(t *testing.T) {
	pp, buf := newPrinter(t)
	march := calendar.Month{Year: 2025, Month: time.March}
	idx := calendar.NewIndex(entry.NewDate(2025, time.March, 3))

	pp.Calendar(march, entry.NewDate(2025, time.March, 14), idx)

	lines := strings.Split(buf.String(), "\n")
	if !strings.Contains(lines[0], "March 2025") {
		t.Errorf("title = %q", lines[0])
	}
	if lines[1] != "Su Mo Tu We Th Fr Sa" {
		t.Errorf("header = %q", lines[1])
	}
	// March 1st 2025 is a Saturday.
	if lines[2] != "                   1" {
		t.Errorf("first week = %q", lines[2])
	}
	if lines[3] != " 2  3  4  5  6  7  8" {
		t.Errorf("second week = %q", lines[3])
	}
}

func TestDatesAndCount(t *testing.T) {
	pp, buf := newPrinter(t)
	pp.Dates([]entry.Date{entry.NewDate(2025, time.March, 3)})
	out := buf.String()
	if !strings.Contains(out, "Journal - 1 entry") || !strings.Contains(out, "2025-03-03  Mon") {
		t.Errorf("output:\n%s", out)
	}

	buf.Reset()
	pp.Dates(nil)
	if !strings.Contains(buf.String(), "0 entries") || !strings.Contains(buf.String(), "none") {
		t.Errorf("empty output:\n%s", buf.String())
	}
}

func TestTranscriptMarksFailed(t *testing.T) {
	pp, buf := newPrinter(t)
	pp.Transcript([]reflection.Item{
		{Role: api.RoleUser, Content: "hello there", Status: reflection.StatusFailed},
		{Role: api.RoleAssistant, Content: reflection.FailedPrefix + "Server error.", Status: reflection.StatusLocal},
	})
	out := buf.String()
	if !strings.Contains(out, "you (failed)") {
		t.Errorf("missing failed marker:\n%s", out)
	}
	if !strings.Contains(out, "  "+reflection.FailedPrefix) {
		t.Errorf("missing notice:\n%s", out)
	}
}

func TestMessageWraps(t *testing.T) {
	pp, buf := newPrinter(t)
	pp.Messages([]api.ChatMessage{{Role: api.RoleAssistant, Content: strings.Repeat("word ", 20)}})
	for _, line := range strings.Split(buf.String(), "\n") {
		if len(line) > 40 {
			t.Errorf("line longer than width: %q", line)
		}
	}
}

func TestProfileTable(t *testing.T) {
	pp, buf := newPrinter(t)
	pp.Profile([]summary.Field{
		{Label: "Name", Value: "Sam"},
		{Label: "Strengths", Value: "Focus: Deep work\nCare: Listens well"},
	})
	out := buf.String()
	for _, want := range []string{"Name", "Sam", "Strengths", "Focus: Deep work", "Care: Listens well"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestJSON(t *testing.T) {
	pp, buf := newPrinter(t)
	if err := pp.JSON(map[string]string{"date": "2025-03-03"}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{\n  \"date\": \"2025-03-03\"\n}" {
		t.Errorf("json = %q", got)
	}
}
