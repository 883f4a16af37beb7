package teaui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/textarea"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/tranquil/pkg/journal"
)

type journalFocus int

const (
	focusCalendar journalFocus = iota
	focusEditor
)

// journalScreen pairs the month calendar with the editor for the selected
// day.
type journalScreen struct {
	deps

	gen   int
	area  textarea.Model
	focus journalFocus
	busy  bool
	err   string
}

func newJournalScreen(d deps) *journalScreen {
	area := textarea.New()
	area.Placeholder = "How was your day?"
	area.ShowLineNumbers = false
	area.Prompt = ""
	area.CharLimit = 0
	area.VirtualCursor = true
	return &journalScreen{deps: d, area: area}
}

func (j *journalScreen) ws() *journal.Workspace { return j.app.Journal }

func (j *journalScreen) enter(gen int) tea.Cmd {
	j.gen = gen
	j.busy = true
	j.err = ""
	j.focus = focusCalendar
	j.area.Blur()
	ws, ctx := j.ws(), j.ctx
	return func() tea.Msg {
		return journalLoadedMsg{tag: tag{gen}, err: ws.Load(ctx)}
	}
}

// leave saves whatever the editor holds.
func (j *journalScreen) leave() tea.Cmd {
	j.area.Blur()
	j.focus = focusCalendar
	return j.blurSave()
}

func (j *journalScreen) blurSave() tea.Cmd {
	ed, ctx, gen := j.ws().Editor(), j.ctx, j.gen
	if s := ed.State(); s != journal.StateDirty && s != journal.StateError {
		return nil
	}
	return func() tea.Msg {
		return journalSavedMsg{tag: tag{gen}, err: ed.Blur(ctx)}
	}
}

func (j *journalScreen) help() string {
	if j.focus == focusEditor {
		return "esc/tab done (saves) • ctrl+s save • F2 reflect • F3 summary"
	}
	return "←→↑↓ move • [ ] month • t today • enter write • r reload • ctrl+o sign out"
}

func (j *journalScreen) update(msg tea.Msg) tea.Cmd {
	switch v := msg.(type) {
	case journalLoadedMsg:
		j.busy = false
		j.setErr(v.err)
		j.syncArea()
		return nil
	case journalSelectedMsg:
		j.busy = false
		j.setErr(v.err)
		j.syncArea()
		return nil
	case journalSavedMsg:
		j.setErr(v.err)
		return nil
	case tea.KeyPressMsg:
		if j.focus == focusEditor {
			return j.editorKey(v)
		}
		return j.calendarKey(v)
	}
	if j.focus == focusEditor {
		var cmd tea.Cmd
		j.area, cmd = j.area.Update(msg)
		return cmd
	}
	return nil
}

func (j *journalScreen) setErr(err error) {
	if err == nil {
		j.err = ""
		return
	}
	j.err = err.Error()
}

// syncArea loads the editor's content for the open date into the textarea.
func (j *journalScreen) syncArea() {
	j.area.SetValue(j.ws().Editor().Content())
}

func (j *journalScreen) calendarKey(msg tea.KeyPressMsg) tea.Cmd {
	if j.busy {
		return nil
	}
	ws := j.ws()
	switch msg.String() {
	case "left", "h":
		return j.selecting(func(ctx context.Context) error { return ws.Move(ctx, -1) })
	case "right", "l":
		return j.selecting(func(ctx context.Context) error { return ws.Move(ctx, 1) })
	case "up", "k":
		return j.selecting(func(ctx context.Context) error { return ws.Move(ctx, -7) })
	case "down", "j":
		return j.selecting(func(ctx context.Context) error { return ws.Move(ctx, 7) })
	case "[", "pgup":
		return j.selecting(ws.PrevMonth)
	case "]", "pgdown":
		return j.selecting(ws.NextMonth)
	case "t":
		return j.selecting(func(ctx context.Context) error { return ws.Select(ctx, ws.Today()) })
	case "r":
		return j.enter(j.gen)
	case "x":
		// Drop a failed save so the calendar can move again.
		if ws.Editor().State() == journal.StateError {
			ws.Editor().Discard()
			j.err = ""
			j.syncArea()
		}
		return nil
	case "enter", "tab", "i":
		j.focus = focusEditor
		return j.area.Focus()
	}
	return nil
}

func (j *journalScreen) selecting(fn func(context.Context) error) tea.Cmd {
	j.busy = true
	ctx, gen := j.ctx, j.gen
	return func() tea.Msg {
		return journalSelectedMsg{tag: tag{gen}, err: fn(ctx)}
	}
}

func (j *journalScreen) editorKey(msg tea.KeyPressMsg) tea.Cmd {
	ed := j.ws().Editor()
	switch msg.String() {
	case "esc", "tab":
		j.area.Blur()
		j.focus = focusCalendar
		return j.blurSave()
	case "ctrl+s":
		ctx, gen := j.ctx, j.gen
		return func() tea.Msg {
			return journalSavedMsg{tag: tag{gen}, err: ed.Save(ctx)}
		}
	}
	var cmd tea.Cmd
	j.area, cmd = j.area.Update(msg)
	ed.Edit(j.area.Value())
	return cmd
}

func (j *journalScreen) view(width, height int) string {
	t := j.theme
	ws := j.ws()
	ed := ws.Editor()

	calFrame, edFrame := t.Panel.Frame, t.Panel.Focused
	if j.focus == focusCalendar {
		calFrame, edFrame = t.Panel.Focused, t.Panel.Frame
	}
	cal := calFrame.Render(ws.Render(t.Calendar))
	calWidth := lipgloss.Width(cal)

	edWidth := maxInt(20, width-calWidth-1)
	edHeight := maxInt(3, height-4)
	j.area.SetWidth(edWidth - 4)
	j.area.SetHeight(edHeight - 2)

	date := ws.Selected()
	header := t.Panel.Title.Render(date.Time(j.app.Config.Location()).Format("Monday, January 2 2006"))
	header += "  " + t.Panel.Muted.Render(j.stateLine(ed))
	body := []string{header}
	if ed.Remote() && ed.Content() == "" {
		body = append(body, t.Panel.Muted.Render("Written elsewhere. Its text is not available here; saving replaces it."))
	}
	body = append(body, j.area.View())
	right := edFrame.Width(edWidth).Render(strings.Join(body, "\n"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, cal, " ", right)
	if j.err != "" {
		view += "\n" + t.Form.Error.Render(j.err)
		if ed.State() == journal.StateError {
			view += t.Panel.Muted.Render("  (ctrl+s retry • x discard)")
		}
	}
	return view
}

func (j *journalScreen) stateLine(ed *journal.Editor) string {
	if j.busy {
		return "loading…"
	}
	switch ed.State() {
	case journal.StateSaving:
		return "saving…"
	case journal.StateDirty:
		return "unsaved"
	case journal.StateError:
		return "not saved"
	case journal.StateLoaded:
		if at, ok := ed.SavedAt(); ok {
			return fmt.Sprintf("saved %s", at.Local().Format("3:04pm"))
		}
		return "saved"
	case journal.StateEmpty:
		return "no entry yet"
	}
	return ""
}
