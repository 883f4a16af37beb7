package entry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeContentTreatsEmptyMarkupAsBlank(t *testing.T) {
	blank := []string{
		"",
		"   ",
		"\n",
		"<p></p>",
		"<p><br></p>",
		"<p>&nbsp;</p>",
		"<p> </p><p><br/></p>",
		"<div><span></span></div>",
	}
	for _, v := range blank {
		if got := NormalizeContent(v); got != "" {
			t.Fatalf("NormalizeContent(%q) = %q, want empty", v, got)
		}
		if !IsBlank(v) {
			t.Fatalf("IsBlank(%q) = false", v)
		}
	}
}

func TestNormalizeContentKeepsText(t *testing.T) {
	cases := []struct{ in, want string }{
		{in: "Hello", want: "Hello"},
		{in: "  Hello \n", want: "Hello"},
		{in: "<p>Hello</p>", want: "<p>Hello</p>"},
		{in: `<p><img src="x.png"></p>`, want: `<p><img src="x.png"></p>`},
		{in: "fish & chips", want: "fish & chips"},
	}
	for _, tc := range cases {
		if got := NormalizeContent(tc.in); got != tc.want {
			t.Fatalf("NormalizeContent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>one</p><p>two<br>three</p>")
	if got != "one\ntwo\nthree" {
		t.Fatalf("PlainText = %q", got)
	}
}

func TestParseDateAcceptsTimestamps(t *testing.T) {
	d, err := ParseDate("2024-02-29T10:11:12Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != (Date{Year: 2024, Month: time.February, Day: 29}) {
		t.Fatalf("date = %+v", d)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.January, 5)
	raw, err := json.Marshal(struct {
		D Date `json:"d"`
	}{d})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"d":"2025-01-05"}` {
		t.Fatalf("json = %s", raw)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.December, 31)
	if next := d.AddDays(1); next != NewDate(2025, time.January, 1) {
		t.Fatalf("AddDays = %v", next)
	}
	if !d.Before(d.AddDays(1)) || d.After(d) {
		t.Fatalf("comparison broken")
	}
	if DaysIn(2024, time.February) != 29 || DaysIn(2023, time.February) != 28 {
		t.Fatalf("DaysIn wrong for February")
	}
}

func TestParseTimeFormats(t *testing.T) {
	for _, v := range []string{
		"2025-03-01T09:30:00Z",
		"2025-03-01T09:30:00.123456",
		"2025-03-01 09:30:00+00:00",
	} {
		ts, err := ParseTime(v)
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", v, err)
		}
		if DateOf(ts.UTC()) != NewDate(2025, time.March, 1) {
			t.Fatalf("ParseTime(%q) = %v", v, ts)
		}
	}
}

func TestTimestampOnDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := Timestamp{Time: time.Date(2025, 3, 2, 2, 0, 0, 0, time.UTC)}
	if !ts.OnDate(NewDate(2025, time.March, 1), loc) {
		t.Fatalf("02:00 UTC should be the previous day in EST")
	}
}
