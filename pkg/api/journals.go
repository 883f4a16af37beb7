package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tableflip.dev/tranquil/pkg/entry"
)

const notSpecified = "Not specified"

// SaveGoalsJournal stores onboarding goals together with a first journal.
func (c *Client) SaveGoalsJournal(ctx context.Context, in GoalsJournal) (string, error) {
	for _, g := range []*string{&in.Goals.Yearly, &in.Goals.Monthly, &in.Goals.Weekly} {
		if strings.TrimSpace(*g) == "" {
			*g = notSpecified
		}
	}
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, call{op: "save goals", method: http.MethodPost, path: "/goals-journals", body: in, out: &out})
	return out.Message, err
}

// SaveJournal upserts the entry for date. Content is sent as given; callers
// are expected to have normalized it.
func (c *Client) SaveJournal(ctx context.Context, date entry.Date, content string) (entry.JournalEntry, error) {
	if date.IsZero() {
		return entry.JournalEntry{}, Validation("save journal", "A journal date is required.")
	}
	var raw rawJournal
	err := c.do(ctx, call{
		op:     "save journal",
		method: http.MethodPost,
		path:   "/journals",
		body:   saveJournalRequest{Content: content, JournalDate: date},
		out:    &raw,
	})
	if err != nil {
		return entry.JournalEntry{}, err
	}
	if len(raw.Data) > 0 {
		raw = raw.Data[0]
	}

	saved := entry.JournalEntry{ID: raw.ID, UserID: raw.UserID, Date: date, Content: content}
	if raw.Content != nil {
		saved.Content = *raw.Content
	}
	if raw.JournalDate != "" {
		if d, err := entry.ParseDate(raw.JournalDate); err == nil {
			saved.Date = d
		}
	}
	switch {
	case !raw.UpdatedAt.IsZero():
		saved.SavedAt = raw.UpdatedAt
	case !raw.CreatedAt.IsZero():
		saved.SavedAt = raw.CreatedAt
	default:
		saved.SavedAt = entry.Now()
	}
	return saved, nil
}

// JournalDates lists every date the user has an entry for.
func (c *Client) JournalDates(ctx context.Context) ([]entry.Date, error) {
	var body json.RawMessage
	if err := c.do(ctx, call{op: "journal dates", method: http.MethodGet, path: "/journal-dates", out: &body}); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var values []string
	if err := json.Unmarshal(body, &values); err != nil {
		var wrapped struct {
			Dates []string `json:"dates"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, &Error{Kind: KindServer, Op: "journal dates", Message: "Unexpected response from server.", Err: err2}
		}
		values = wrapped.Dates
	}

	seen := make(map[entry.Date]struct{}, len(values))
	dates := make([]entry.Date, 0, len(values))
	for _, v := range values {
		d, err := entry.ParseDate(v)
		if err != nil {
			c.log.Debug().Str("value", v).Msg("skipping malformed journal date")
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	return dates, nil
}

// JournalSummary fetches a precomputed summary. A summary that has not been
// computed yet is reported as KindNotFound.
func (c *Client) JournalSummary(ctx context.Context, start, end entry.Date) (JournalSummary, error) {
	if err := validateRange("journal summary", start, end); err != nil {
		return JournalSummary{}, err
	}
	var body json.RawMessage
	err := c.do(ctx, call{
		op:     "journal summary",
		method: http.MethodGet,
		path:   "/journal-summaries",
		query:  map[string]string{"start_date": start.String(), "end_date": end.String()},
		out:    &body,
	})
	if err != nil {
		return JournalSummary{}, err
	}

	summary, ok := decodeSummary(body)
	if !ok {
		return JournalSummary{}, &Error{
			Kind:    KindNotFound,
			Status:  http.StatusNotFound,
			Op:      "journal summary",
			Message: "No summary computed for this range yet.",
		}
	}
	return summary, nil
}

// CreateJournalSummary asks the server to compute a summary for the range.
func (c *Client) CreateJournalSummary(ctx context.Context, start, end entry.Date) (JournalSummary, error) {
	if err := validateRange("create journal summary", start, end); err != nil {
		return JournalSummary{}, err
	}
	var body json.RawMessage
	err := c.do(ctx, call{
		op:     "create journal summary",
		method: http.MethodPost,
		path:   "/journal-summaries",
		body:   summaryRange{StartDate: start, EndDate: end},
		out:    &body,
	})
	if err != nil {
		return JournalSummary{}, err
	}
	summary, ok := decodeSummary(body)
	if !ok {
		return JournalSummary{}, &Error{Kind: KindServer, Op: "create journal summary", Message: "The server did not return a summary."}
	}
	return summary, nil
}

// decodeSummary accepts a bare record, a one-element list or {summary:{}}.
func decodeSummary(body json.RawMessage) (JournalSummary, bool) {
	var one JournalSummary
	if err := json.Unmarshal(body, &one); err == nil && one.SummaryText != "" {
		return one, true
	}
	var list []JournalSummary
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].SummaryText != "" {
		return list[0], true
	}
	var wrapped struct {
		Summary *JournalSummary `json:"summary"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Summary != nil && wrapped.Summary.SummaryText != "" {
		return *wrapped.Summary, true
	}
	return JournalSummary{}, false
}

func validateRange(op string, start, end entry.Date) error {
	if start.IsZero() || end.IsZero() {
		return Validation(op, "Both a start and an end date are required.")
	}
	if end.Before(start) {
		return Validation(op, fmt.Sprintf("End date %s is before start date %s.", end, start))
	}
	return nil
}
