package teaui

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/tranquil/pkg/auth"
)

// authForm is the sign-in or sign-up screen.
type authForm struct {
	deps

	signUp   bool
	gen      int
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
}

func newAuthForm(d deps, signUp bool) *authForm {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &authForm{deps: d, signUp: signUp, email: email, password: password}
}

func (f *authForm) enter(gen int) tea.Cmd {
	f.gen = gen
	f.busy = false
	f.err = ""
	f.password.SetValue("")
	f.focus = 0
	f.password.Blur()
	return f.email.Focus()
}

func (f *authForm) leave() tea.Cmd {
	f.email.Blur()
	f.password.Blur()
	return nil
}

func (f *authForm) title() string {
	if f.signUp {
		return "Create your account"
	}
	return "Sign in"
}

func (f *authForm) help() string {
	other := "ctrl+n create account"
	if f.signUp {
		other = "ctrl+n sign in instead"
	}
	return "tab next field • enter submit • " + other + " • ctrl+c quit"
}

func (f *authForm) update(msg tea.Msg) tea.Cmd {
	switch v := msg.(type) {
	case authResultMsg:
		f.busy = false
		if v.err != nil {
			f.err = v.err.Error()
			return nil
		}
		if !v.signedIn {
			return navigateTo(auth.PathSignIn, "Account created for "+v.user.Email+". Sign in to continue.")
		}
		return nil
	case tea.KeyPressMsg:
		return f.handleKey(v)
	}
	return f.forward(msg)
}

func (f *authForm) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if f.busy {
		return nil
	}
	switch msg.String() {
	case "ctrl+n":
		if f.signUp {
			return navigateTo(auth.PathSignIn, "")
		}
		return navigateTo(auth.PathSignUp, "")
	case "tab", "shift+tab", "up", "down":
		return f.setFocus(1 - f.focus)
	case "enter":
		if f.focus == 0 {
			return f.setFocus(1)
		}
		return f.submit()
	}
	return f.forward(msg)
}

func (f *authForm) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f *authForm) setFocus(i int) tea.Cmd {
	f.focus = i
	if i == 0 {
		f.password.Blur()
		return f.email.Focus()
	}
	f.email.Blur()
	return f.password.Focus()
}

func (f *authForm) submit() tea.Cmd {
	f.busy = true
	f.err = ""
	a, ctx, gen, signUp := f.app, f.ctx, f.gen, f.signUp
	email, password := strings.TrimSpace(f.email.Value()), f.password.Value()
	return func() tea.Msg {
		msg := authResultMsg{tag: tag{gen}, signUp: signUp}
		if signUp {
			msg.user, msg.err = a.Auth.SignUp(ctx, email, password)
		} else {
			msg.user, msg.err = a.Auth.SignIn(ctx, email, password)
		}
		msg.signedIn = msg.err == nil && a.Auth.State() == auth.StateAuthenticated
		return msg
	}
}

func (f *authForm) view(width, height int) string {
	t := f.theme
	label := func(i int, s string) string {
		if f.focus == i {
			return t.Form.Focused.Render(s)
		}
		return t.Form.Label.Render(s)
	}
	f.email.SetWidth(minInt(40, maxInt(10, width-20)))
	f.password.SetWidth(minInt(40, maxInt(10, width-20)))

	rows := []string{
		t.Panel.Title.Render(f.title()),
		"",
		label(0, "Email"),
		f.email.View(),
		"",
		label(1, "Password"),
		f.password.View(),
		"",
	}
	switch {
	case f.busy:
		rows = append(rows, t.Panel.Muted.Render("Working…"))
	case f.err != "":
		rows = append(rows, t.Form.Error.Render(f.err))
	}
	box := t.Panel.Frame.Padding(1, 3).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
