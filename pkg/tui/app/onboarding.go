package teaui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/tranquil/pkg/auth"
	"tableflip.dev/tranquil/pkg/summary"
)

type onboardField struct {
	label string
	input textinput.Model
}

// onboarding walks a new user through the first-run questions.
type onboarding struct {
	deps

	gen    int
	fields []onboardField
	terms  bool
	focus  int
	busy   bool
	err    string
}

func newOnboarding(d deps) *onboarding {
	labels := []string{
		"Name",
		"Age",
		"Gender (optional)",
		"What do you hope to get out of journaling?",
		"A goal for this year",
		"A goal for this month",
		"A goal for this week",
	}
	fields := make([]onboardField, len(labels))
	for i, l := range labels {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 500
		fields[i] = onboardField{label: l, input: in}
	}
	fields[1].input.CharLimit = 3
	return &onboarding{deps: d, fields: fields}
}

// termsIndex is the focus slot of the terms checkbox, after the inputs.
func (o *onboarding) termsIndex() int { return len(o.fields) }

func (o *onboarding) enter(gen int) tea.Cmd {
	o.gen = gen
	o.busy = false
	o.err = ""
	return o.setFocus(0)
}

func (o *onboarding) leave() tea.Cmd {
	for i := range o.fields {
		o.fields[i].input.Blur()
	}
	return nil
}

func (o *onboarding) help() string {
	return "tab next • space accept terms • enter on terms to finish • esc skip for now"
}

func (o *onboarding) form() summary.Onboarding {
	age, _ := strconv.Atoi(strings.TrimSpace(o.fields[1].input.Value()))
	ob := summary.Onboarding{
		Name:          strings.TrimSpace(o.fields[0].input.Value()),
		Age:           age,
		Gender:        strings.TrimSpace(o.fields[2].input.Value()),
		Aspirations:   o.fields[3].input.Value(),
		TermsAccepted: o.terms,
	}
	ob.Goals.Yearly = strings.TrimSpace(o.fields[4].input.Value())
	ob.Goals.Monthly = strings.TrimSpace(o.fields[5].input.Value())
	ob.Goals.Weekly = strings.TrimSpace(o.fields[6].input.Value())
	return ob
}

func (o *onboarding) update(msg tea.Msg) tea.Cmd {
	switch v := msg.(type) {
	case onboardedMsg:
		o.busy = false
		if v.err != nil {
			o.err = v.err.Error()
		}
		return nil
	case tea.KeyPressMsg:
		if o.busy {
			return nil
		}
		switch v.String() {
		case "tab", "down":
			return o.setFocus((o.focus + 1) % (o.termsIndex() + 1))
		case "shift+tab", "up":
			return o.setFocus((o.focus + o.termsIndex()) % (o.termsIndex() + 1))
		case "esc":
			svc := o.app.Summary
			return func() tea.Msg {
				_ = svc.SkipOnboarding()
				return navigateMsg{path: auth.PathHome}
			}
		case "space", " ":
			if o.focus == o.termsIndex() {
				o.terms = !o.terms
				return nil
			}
		case "enter":
			if o.focus < o.termsIndex() {
				return o.setFocus(o.focus + 1)
			}
			return o.submit()
		}
	}
	if o.focus < o.termsIndex() {
		var cmd tea.Cmd
		o.fields[o.focus].input, cmd = o.fields[o.focus].input.Update(msg)
		return cmd
	}
	return nil
}

func (o *onboarding) setFocus(i int) tea.Cmd {
	o.focus = i
	var cmd tea.Cmd
	for j := range o.fields {
		if j == i {
			cmd = o.fields[j].input.Focus()
		} else {
			o.fields[j].input.Blur()
		}
	}
	return cmd
}

// submit validates locally so each problem is reported without a request.
func (o *onboarding) submit() tea.Cmd {
	ob := o.form()
	if err := ob.Validate(); err != nil {
		o.err = err.Error()
		return nil
	}
	o.busy = true
	o.err = ""
	svc, ctx, gen := o.app.Summary, o.ctx, o.gen
	return func() tea.Msg {
		text, err := svc.Onboard(ctx, ob)
		if text == "" {
			text = "Welcome to tranquil."
		}
		return onboardedMsg{tag: tag{gen}, message: text, err: err}
	}
}

func (o *onboarding) view(width, height int) string {
	t := o.theme
	rows := []string{t.Panel.Title.Render("Welcome. A few questions before you start."), ""}
	for i, f := range o.fields {
		label := t.Form.Label.Render(f.label)
		if i == o.focus {
			label = t.Form.Focused.Render(f.label)
		}
		f.input.SetWidth(minInt(60, maxInt(10, width-16)))
		rows = append(rows, label, f.input.View())
	}
	box := "[ ]"
	if o.terms {
		box = "[x]"
	}
	terms := box + " I accept the terms of use"
	if o.focus == o.termsIndex() {
		terms = t.Form.Focused.Render(terms)
	}
	rows = append(rows, "", terms, "")
	switch {
	case o.busy:
		rows = append(rows, t.Panel.Muted.Render("Saving…"))
	case o.err != "":
		rows = append(rows, t.Form.Error.Render(o.err))
	}
	panel := t.Panel.Frame.Padding(1, 3).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
