package summary

import (
	"context"
	"fmt"
	"strings"

	"tableflip.dev/tranquil/pkg/api"
)

const (
	// MinAge is the youngest age accepted by onboarding.
	MinAge         = 13
	minAspirations = 10
)

// Onboarding is the first-run questionnaire.
type Onboarding struct {
	Name          string
	Age           int
	Gender        string
	Aspirations   string
	TermsAccepted bool
	Goals         api.Goals
}

// Validate checks the questionnaire the same way each step gates progress.
func (o Onboarding) Validate() error {
	const op = "onboarding"
	switch {
	case strings.TrimSpace(o.Name) == "":
		return api.Validation(op, "Please tell us your name.")
	case o.Age < MinAge:
		return api.Validation(op, fmt.Sprintf("You must be at least %d to use Tranquil.", MinAge))
	case len(strings.TrimSpace(o.Aspirations)) <= minAspirations:
		return api.Validation(op, fmt.Sprintf("Tell us a little more about your aspirations (more than %d characters).", minAspirations))
	case !o.TermsAccepted:
		return api.Validation(op, "Please accept the terms to continue.")
	}
	return nil
}

// NeedsOnboarding reports whether the questionnaire is still to be done.
func (s *Service) NeedsOnboarding() bool {
	return s.welcome == nil || !s.welcome.WelcomeSeen()
}

// SkipOnboarding marks onboarding as done without sending anything.
func (s *Service) SkipOnboarding() error {
	if s.welcome == nil {
		return nil
	}
	return s.welcome.SetWelcomeSeen(true)
}

// Onboard validates o, sends the goals with the aspirations as the first
// journal, and records that onboarding is done.
func (s *Service) Onboard(ctx context.Context, o Onboarding) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	msg, err := s.backend.SaveGoalsJournal(ctx, api.GoalsJournal{
		Goals:   o.Goals,
		Journal: strings.TrimSpace(o.Aspirations),
	})
	if err != nil {
		return "", err
	}
	if s.welcome != nil {
		if err := s.welcome.SetWelcomeSeen(true); err != nil {
			s.log.Warn().Err(err).Msg("record onboarding")
		}
	}
	return msg, nil
}
