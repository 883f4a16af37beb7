// Package mcp exposes the journal and reflection features to Model Context
// Protocol clients.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/reflection"
	"tableflip.dev/tranquil/pkg/summary"
)

// Service runs tool calls against a signed-in App.
type Service struct {
	App *app.App
}

// ErrEmptyEntry is returned when the text to save has no visible content.
var ErrEmptyEntry = errors.New("journal content is empty")

// EntryDTO is a saved journal entry.
type EntryDTO struct {
	ID      string `json:"id,omitempty"`
	Date    string `json:"date"`
	Content string `json:"content"`
	SavedAt string `json:"savedAt,omitempty"`
}

// SessionDTO describes one chat session.
type SessionDTO struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Today     bool   `json:"today"`
}

// MessageDTO is one line of a transcript.
type MessageDTO struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// ProfileDTO combines the profile fields with the latest insights.
type ProfileDTO struct {
	Fields   map[string]string `json:"fields"`
	Insights string            `json:"insights"`
}

func NewService(a *app.App) *Service {
	return &Service{App: a}
}

func (s *Service) ready(ctx context.Context) error {
	if s.App == nil {
		return errors.New("mcp: app is not configured")
	}
	if _, err := s.App.RequireSession(ctx); err != nil {
		if errors.Is(err, app.ErrSignedOut) {
			return errors.New("not signed in; run `tranquil login` first")
		}
		return err
	}
	return nil
}

// JournalDates lists every date with an entry, oldest first.
func (s *Service) JournalDates(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ws := s.App.Journal
	if err := ws.Load(ctx); err != nil {
		return nil, err
	}
	dates := ws.Index().Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out, nil
}

// SaveJournal replaces the entry for on. An empty on means today.
func (s *Service) SaveJournal(ctx context.Context, on, content string) (*EntryDTO, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	date := s.App.Journal.Today()
	if strings.TrimSpace(on) != "" {
		d, err := entry.ParseDate(on)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", on, err)
		}
		date = d
	}
	body := entry.NormalizeContent(content)
	if body == "" {
		return nil, ErrEmptyEntry
	}
	saved, err := s.App.Client.SaveJournal(ctx, date, body)
	if err != nil {
		return nil, err
	}
	s.App.Journal.Index().Mark(saved.Date)
	return &EntryDTO{
		ID:      saved.ID,
		Date:    saved.Date.String(),
		Content: saved.Content,
		SavedAt: saved.SavedAt.String(),
	}, nil
}

// ChatSessions lists sessions newest first, starting today's when missing.
func (s *Service) ChatSessions(ctx context.Context) ([]SessionDTO, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	r := s.App.Reflection
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	current := r.Current()
	sessions := r.Sessions()
	out := make([]SessionDTO, 0, len(sessions))
	for _, cs := range sessions {
		out = append(out, SessionDTO{ID: cs.ID, CreatedAt: cs.CreatedAt.String(), Today: cs.ID == current})
	}
	return out, nil
}

// History returns the transcript of session, or of today's when empty.
func (s *Service) History(ctx context.Context, session string) ([]MessageDTO, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	r := s.App.Reflection
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	if session == "" {
		session = r.Current()
	}
	if session != r.Selected() {
		if err := r.Select(ctx, session); err != nil {
			return nil, err
		}
	}
	return toMessages(r.Transcript()), nil
}

// ChatSend posts message to today's session and returns the new lines of the
// transcript. A rejected message comes back marked failed with the error.
func (s *Service) ChatSend(ctx context.Context, message string) ([]MessageDTO, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	r := s.App.Reflection
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	if r.Selected() != r.Current() {
		if err := r.Select(ctx, r.Current()); err != nil {
			return nil, err
		}
	}
	before := len(r.Transcript())
	sendErr := r.Send(ctx, message)
	items := r.Transcript()
	if before <= len(items) {
		items = items[before:]
	}
	if sendErr != nil && len(items) == 0 {
		return nil, sendErr
	}
	return toMessages(items), sendErr
}

// JournalSummary returns the summary for [start, end], computing it when the
// server has none.
func (s *Service) JournalSummary(ctx context.Context, start, end string) (api.JournalSummary, error) {
	if err := s.ready(ctx); err != nil {
		return api.JournalSummary{}, err
	}
	from, err := entry.ParseDate(start)
	if err != nil {
		return api.JournalSummary{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := entry.ParseDate(end)
	if err != nil {
		return api.JournalSummary{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return s.App.Summary.JournalSummary(ctx, from, to)
}

// Profile returns the profile fields and latest insights. A user without a
// profile yet gets an empty one.
func (s *Service) Profile(ctx context.Context) (*ProfileDTO, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	out := &ProfileDTO{Fields: map[string]string{}}
	p, err := s.App.Summary.Profile(ctx)
	switch {
	case api.IsNotFound(err):
	case err != nil:
		return nil, err
	default:
		for _, f := range summary.Fields(p) {
			out.Fields[f.Label] = f.Value
		}
	}
	out.Insights, err = s.App.Summary.Insights(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toMessages(items []reflection.Item) []MessageDTO {
	out := make([]MessageDTO, 0, len(items))
	for _, it := range items {
		out = append(out, MessageDTO{
			Role:      string(it.Role),
			Content:   it.Content,
			Status:    it.Status.String(),
			CreatedAt: entry.FormatTime(it.CreatedAt),
		})
	}
	return out
}
