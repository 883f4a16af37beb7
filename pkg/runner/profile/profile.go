// Package profile runs the summary, profile, insights and onboarding
// commands.
package profile

import (
	"context"

	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/printers"
	"tableflip.dev/tranquil/pkg/summary"
)

// JournalSummary prints the summary for a date range.
type JournalSummary struct {
	App     *app.App
	Start   entry.Date
	End     entry.Date
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *JournalSummary) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	sum, err := n.App.Summary.JournalSummary(ctx, n.Start, n.End)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(sum)
	}
	n.Printer.Summary(sum)
	return nil
}

// Profile prints the profile the server keeps for the user.
type Profile struct {
	App     *app.App
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Profile) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	p, err := n.App.Summary.Profile(ctx)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(p)
	}
	n.Printer.Profile(summary.Fields(p))
	return nil
}

// Insights prints, and optionally regenerates, the user's insights.
type Insights struct {
	App      *app.App
	Generate bool
	JSON     bool
	Printer  *printers.PrettyPrint
}

func (n *Insights) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	get := n.App.Summary.Insights
	if n.Generate {
		get = n.App.Summary.GenerateInsights
	}
	text, err := get(ctx)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(map[string]string{"insights": text})
	}
	n.Printer.Title("Insights")
	n.Printer.Text(text)
	n.Printer.NewLine()
	return nil
}

// Onboard sends the first-run questionnaire.
type Onboard struct {
	App        *app.App
	Onboarding summary.Onboarding
	JSON       bool
	Printer    *printers.PrettyPrint
}

func (n *Onboard) Do(ctx context.Context) error {
	if err := n.Onboarding.Validate(); err != nil {
		return err
	}
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	msg, err := n.App.Summary.Onboard(ctx, n.Onboarding)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(map[string]string{"message": msg})
	}
	n.Printer.Success("Welcome, %s. %s", n.Onboarding.Name, msg)
	return nil
}
