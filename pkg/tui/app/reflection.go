package teaui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/textinput"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/reflection"
)

const sendTick = 150 * time.Millisecond

type reflectionFocus int

const (
	focusSessions reflectionFocus = iota
	focusInput
)

// reflectionScreen lists chat sessions beside the selected transcript.
type reflectionScreen struct {
	deps

	gen     int
	cursor  int
	focus   reflectionFocus
	busy    bool
	sending bool
	err     string
	summary string

	vp    viewport.Model
	input textinput.Model
}

func newReflectionScreen(d deps) *reflectionScreen {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "What's on your mind?"
	input.CharLimit = 4000
	input.VirtualCursor = true

	vp := viewport.New(
		viewport.WithWidth(1),
		viewport.WithHeight(1),
	)
	return &reflectionScreen{deps: d, vp: vp, input: input}
}

func (r *reflectionScreen) ctl() *reflection.Controller { return r.app.Reflection }

func (r *reflectionScreen) enter(gen int) tea.Cmd {
	r.gen = gen
	r.busy = true
	r.sending = false
	r.err = ""
	r.summary = ""
	ctl, ctx := r.ctl(), r.ctx
	return func() tea.Msg {
		return reflectionLoadedMsg{tag: tag{gen}, err: ctl.Load(ctx)}
	}
}

func (r *reflectionScreen) leave() tea.Cmd {
	r.input.Blur()
	r.focus = focusSessions
	return nil
}

func (r *reflectionScreen) help() string {
	if r.focus == focusInput {
		return "enter send • esc/tab sessions • pgup/pgdn scroll"
	}
	return "↑↓ choose • enter open • tab write • s summarize • pgup/pgdn scroll"
}

func (r *reflectionScreen) update(msg tea.Msg) tea.Cmd {
	switch v := msg.(type) {
	case reflectionLoadedMsg:
		r.busy = false
		r.setErr(v.err)
		r.cursor = r.selectedIndex()
		return r.focusInputIfOpen()
	case reflectionSelectedMsg:
		r.busy = false
		r.setErr(v.err)
		return r.focusInputIfOpen()
	case reflectionSentMsg:
		r.sending = false
		// A failed send is already in the transcript.
		r.setErr(nil)
		return nil
	case reflectionTickMsg:
		if r.sending {
			return r.tick()
		}
		return nil
	case reflectionSummaryMsg:
		r.busy = false
		r.setErr(v.err)
		if v.err == nil {
			r.summary = v.summary.SummaryText
		}
		return nil
	case tea.KeyPressMsg:
		return r.handleKey(v)
	}
	var cmd tea.Cmd
	if r.focus == focusInput {
		r.input, cmd = r.input.Update(msg)
	}
	return cmd
}

func (r *reflectionScreen) setErr(err error) {
	if err == nil {
		r.err = ""
		return
	}
	r.err = err.Error()
}

func (r *reflectionScreen) selectedIndex() int {
	sel := r.ctl().Selected()
	for i, s := range r.ctl().Sessions() {
		if s.ID == sel {
			return i
		}
	}
	return 0
}

func (r *reflectionScreen) focusInputIfOpen() tea.Cmd {
	if !r.ctl().InputEnabled() {
		r.focus = focusSessions
		r.input.Blur()
		return nil
	}
	r.focus = focusInput
	return r.input.Focus()
}

func (r *reflectionScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "pgup", "pgdown":
		var cmd tea.Cmd
		r.vp, cmd = r.vp.Update(msg)
		return cmd
	}
	if r.focus == focusInput {
		switch msg.String() {
		case "esc", "tab":
			r.focus = focusSessions
			r.input.Blur()
			return nil
		case "enter":
			return r.send()
		}
		var cmd tea.Cmd
		r.input, cmd = r.input.Update(msg)
		return cmd
	}

	if r.busy {
		return nil
	}
	sessions := r.ctl().Sessions()
	switch msg.String() {
	case "up", "k":
		if r.cursor > 0 {
			r.cursor--
		}
	case "down", "j":
		if r.cursor < len(sessions)-1 {
			r.cursor++
		}
	case "enter":
		if r.cursor < len(sessions) {
			return r.open(sessions[r.cursor].ID)
		}
	case "tab", "i":
		return r.focusInputIfOpen()
	case "s":
		r.busy = true
		ctl, ctx, gen := r.ctl(), r.ctx, r.gen
		return func() tea.Msg {
			sum, err := ctl.Summarize(ctx)
			return reflectionSummaryMsg{tag: tag{gen}, summary: sum, err: err}
		}
	}
	return nil
}

func (r *reflectionScreen) open(id string) tea.Cmd {
	r.busy = true
	r.summary = ""
	ctl, ctx, gen := r.ctl(), r.ctx, r.gen
	return func() tea.Msg {
		return reflectionSelectedMsg{tag: tag{gen}, err: ctl.Select(ctx, id)}
	}
}

// send posts the input. The pending message shows up on the next tick, before
// the reply arrives.
func (r *reflectionScreen) send() tea.Cmd {
	text := strings.TrimSpace(r.input.Value())
	if text == "" || r.sending {
		return nil
	}
	r.input.SetValue("")
	r.sending = true
	ctl, ctx, gen := r.ctl(), r.ctx, r.gen
	return tea.Batch(func() tea.Msg {
		return reflectionSentMsg{tag: tag{gen}, err: ctl.Send(ctx, text)}
	}, r.tick())
}

func (r *reflectionScreen) tick() tea.Cmd {
	gen := r.gen
	return tea.Tick(sendTick, func(time.Time) tea.Msg {
		return reflectionTickMsg{tag: tag{gen}}
	})
}

func (r *reflectionScreen) view(width, height int) string {
	t := r.theme
	ctl := r.ctl()

	list := r.sessionList()
	listFrame, chatFrame := t.Panel.Focused, t.Panel.Frame
	if r.focus == focusInput {
		listFrame, chatFrame = t.Panel.Frame, t.Panel.Focused
	}
	left := listFrame.Height(maxInt(3, height-2)).Render(list)
	chatWidth := maxInt(20, width-lipgloss.Width(left)-1)
	inner := chatWidth - 4

	footerLines := []string{}
	if r.summary != "" {
		footerLines = append(footerLines, t.Panel.Title.Render("Summary"), wordwrap.String(r.summary, inner))
	}
	if r.err != "" {
		footerLines = append(footerLines, t.Form.Error.Render(r.err))
	}
	if ctl.InputEnabled() {
		r.input.SetWidth(maxInt(10, inner-2))
		footerLines = append(footerLines, r.input.View())
	} else {
		footerLines = append(footerLines, t.Panel.Muted.Render("Past sessions are read only."))
	}
	foot := strings.Join(footerLines, "\n")

	r.vp.SetWidth(inner)
	r.vp.SetHeight(maxInt(1, height-2-lipgloss.Height(foot)))
	r.vp.SetContent(r.renderTranscript(ctl.Transcript(), inner))
	r.vp.GotoBottom()

	right := chatFrame.Width(chatWidth).Render(r.vp.View() + "\n" + foot)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (r *reflectionScreen) sessionList() string {
	t := r.theme
	ctl := r.ctl()
	lines := []string{t.Panel.Title.Render("Sessions")}
	if r.busy && len(ctl.Sessions()) == 0 {
		return strings.Join(append(lines, t.Panel.Muted.Render("loading…")), "\n")
	}
	loc := r.app.Config.Location()
	for i, s := range ctl.Sessions() {
		label := s.CreatedAt.In(loc).Format("Mon Jan 2")
		if s.ID == ctl.Current() {
			label = "Today"
		}
		switch {
		case i == r.cursor && r.focus == focusSessions:
			label = t.Footer.ActiveTab.Render(label)
		case s.ID == ctl.Selected():
			label = t.Panel.Title.Render(label)
		default:
			label = t.Panel.Muted.Render(label)
		}
		lines = append(lines, label)
	}
	return strings.Join(lines, "\n")
}

func (r *reflectionScreen) renderTranscript(items []reflection.Item, width int) string {
	t := r.theme.Transcript
	if len(items) == 0 {
		return r.theme.Panel.Muted.Render("No messages yet.")
	}
	var b strings.Builder
	for _, it := range items {
		who, style := "you", t.User
		if it.Role == api.RoleAssistant {
			who, style = "tranquil", t.Assistant
		}
		head := style.Render(who)
		body := wordwrap.String(strings.TrimSpace(it.Content), maxInt(10, width-2))
		switch it.Status {
		case reflection.StatusPending:
			head += " " + t.Pending.Render("sending…")
		case reflection.StatusFailed:
			head += " " + t.Failed.Render("not sent")
		case reflection.StatusLocal:
			head = ""
			body = t.Notice.Render(body)
		}
		if head != "" {
			b.WriteString(head + "\n")
		}
		b.WriteString(indent.String(body, 2) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
