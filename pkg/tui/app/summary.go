package teaui

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/summary"
)

// summaryScreen shows the month's journal summary, insights and profile.
type summaryScreen struct {
	deps

	gen  int
	busy bool
	err  string

	loaded   bool
	journal  api.JournalSummary
	insights string
	profile  api.Profile

	vp viewport.Model
}

func newSummaryScreen(d deps) *summaryScreen {
	vp := viewport.New(
		viewport.WithWidth(1),
		viewport.WithHeight(1),
	)
	return &summaryScreen{deps: d, vp: vp}
}

func (s *summaryScreen) enter(gen int) tea.Cmd {
	s.gen = gen
	return s.load()
}

func (s *summaryScreen) leave() tea.Cmd { return nil }

func (s *summaryScreen) help() string {
	return "↑↓ scroll • g regenerate insights • r reload • F1 journal • F2 reflect"
}

// load fetches the three sections in parallel.
func (s *summaryScreen) load() tea.Cmd {
	s.busy = true
	s.err = ""
	svc, ctx, gen := s.app.Summary, s.ctx, s.gen
	today := entry.Today(s.app.Config.Location())
	start := calendar.MonthOf(today).First()
	return func() tea.Msg {
		msg := summaryLoadedMsg{tag: tag{gen}}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			msg.journal, err = svc.JournalSummary(gctx, start, today)
			return err
		})
		g.Go(func() (err error) {
			msg.insights, err = svc.Insights(gctx)
			return err
		})
		g.Go(func() (err error) {
			msg.profile, err = svc.Profile(gctx)
			if api.IsNotFound(err) {
				err = nil
			}
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (s *summaryScreen) update(msg tea.Msg) tea.Cmd {
	switch v := msg.(type) {
	case summaryLoadedMsg:
		s.busy = false
		if v.err != nil {
			s.err = v.err.Error()
			return nil
		}
		s.loaded = true
		s.journal, s.insights, s.profile = v.journal, v.insights, v.profile
		return nil
	case insightsMsg:
		s.busy = false
		if v.err != nil {
			s.err = v.err.Error()
			return nil
		}
		s.insights = v.insights
		return nil
	case tea.KeyPressMsg:
		if s.busy {
			return nil
		}
		switch v.String() {
		case "r":
			return s.load()
		case "g":
			s.busy = true
			s.err = ""
			svc, ctx, gen := s.app.Summary, s.ctx, s.gen
			return func() tea.Msg {
				text, err := svc.GenerateInsights(ctx)
				return insightsMsg{tag: tag{gen}, insights: text, err: err}
			}
		}
	}
	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return cmd
}

func (s *summaryScreen) view(width, height int) string {
	t := s.theme
	inner := maxInt(20, width-4)
	var b strings.Builder
	section := func(title, body string) {
		b.WriteString(t.Panel.Title.Render(title) + "\n")
		b.WriteString(indent.String(wordwrap.String(body, inner-2), 2) + "\n\n")
	}

	switch {
	case s.busy && !s.loaded:
		b.WriteString(t.Panel.Muted.Render("Gathering your summary…"))
	case s.loaded:
		title := "This month"
		if !s.journal.StartDate.IsZero() {
			title += " (" + s.journal.StartDate.String() + " to " + s.journal.EndDate.String() + ")"
		}
		text := strings.TrimSpace(s.journal.SummaryText)
		if text == "" {
			text = "Nothing to summarize yet."
		}
		section(title, text)
		section("Insights", s.insights)
		section("Profile", s.profileText())
	}
	if s.err != "" {
		b.WriteString(t.Form.Error.Render(s.err))
	}

	s.vp.SetWidth(inner)
	s.vp.SetHeight(maxInt(1, height-2))
	s.vp.SetContent(strings.TrimRight(b.String(), "\n"))
	return t.Panel.Frame.Width(width - 2).Render(s.vp.View())
}

func (s *summaryScreen) profileText() string {
	fields := summary.Fields(s.profile)
	if len(fields) == 0 {
		return "No profile yet. Keep writing and reflecting."
	}
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Label+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}
