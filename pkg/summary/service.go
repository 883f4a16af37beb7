// Package summary reads what the server has computed about the user: the
// profile, journal summaries and insights. It also runs onboarding, which
// sends the first goals and journal.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/entry"
)

// NoInsights is shown when the server has nothing to report yet.
const NoInsights = "No insights available yet."

// Backend is the subset of the API client this package uses.
type Backend interface {
	UserProfile(ctx context.Context) (api.Profile, error)
	UpdateUserProfile(ctx context.Context, data map[string]any) (api.Profile, error)
	JournalSummary(ctx context.Context, start, end entry.Date) (api.JournalSummary, error)
	CreateJournalSummary(ctx context.Context, start, end entry.Date) (api.JournalSummary, error)
	Insights(ctx context.Context) (string, error)
	GenerateInsights(ctx context.Context) (string, error)
	SaveGoalsJournal(ctx context.Context, in api.GoalsJournal) (string, error)
}

// Welcome tracks whether onboarding was completed on this device.
type Welcome interface {
	WelcomeSeen() bool
	SetWelcomeSeen(seen bool) error
}

type Service struct {
	backend Backend
	welcome Welcome
	log     zerolog.Logger
}

// New returns a Service. welcome may be nil, in which case onboarding is
// never considered done.
func New(backend Backend, welcome Welcome, log zerolog.Logger) *Service {
	return &Service{backend: backend, welcome: welcome, log: log}
}

// Profile fetches the profile document.
func (s *Service) Profile(ctx context.Context) (api.Profile, error) {
	return s.backend.UserProfile(ctx)
}

// UpdateProfile replaces the profile document.
func (s *Service) UpdateProfile(ctx context.Context, data map[string]any) (api.Profile, error) {
	return s.backend.UpdateUserProfile(ctx, data)
}

// JournalSummary returns the summary for [start, end]. When the server has
// not computed one yet it is asked to, and that result is returned.
func (s *Service) JournalSummary(ctx context.Context, start, end entry.Date) (api.JournalSummary, error) {
	sum, err := s.backend.JournalSummary(ctx, start, end)
	switch {
	case err == nil && strings.TrimSpace(sum.SummaryText) != "":
		return sum, nil
	case err != nil && !api.IsNotFound(err):
		return api.JournalSummary{}, err
	}
	s.log.Debug().Str("start", start.String()).Str("end", end.String()).Msg("computing journal summary")
	sum, err = s.backend.CreateJournalSummary(ctx, start, end)
	if err != nil {
		return api.JournalSummary{}, fmt.Errorf("summary: compute: %w", err)
	}
	return sum, nil
}

// Insights returns the latest insights, or NoInsights.
func (s *Service) Insights(ctx context.Context) (string, error) {
	text, err := s.backend.Insights(ctx)
	if api.IsNotFound(err) {
		return NoInsights, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return NoInsights, nil
	}
	return text, nil
}

// GenerateInsights asks the server to analyze entries written since the
// last run.
func (s *Service) GenerateInsights(ctx context.Context) (string, error) {
	text, err := s.backend.GenerateInsights(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return NoInsights, nil
	}
	return text, nil
}
