// Package teaui hosts the Bubble Tea program for the tranquil TUI.
package teaui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	appsvc "tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/auth"
	"tableflip.dev/tranquil/pkg/store"
	"tableflip.dev/tranquil/pkg/tui/components/help"
	"tableflip.dev/tranquil/pkg/tui/theme"
)

const msgExpired = "Your session has expired. Please sign in again."

// screen is one routed page of the UI.
type screen interface {
	// enter starts the screen for navigation generation gen.
	enter(gen int) tea.Cmd
	// leave runs when navigating away, before the next screen enters.
	leave() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view(width, height int) string
	help() string
}

// deps are shared by every screen.
type deps struct {
	app   *appsvc.App
	ctx   context.Context
	theme theme.Theme
}

// Model is the root model. It owns routing and hands everything else to the
// current screen.
type Model struct {
	deps

	cancel context.CancelFunc

	route string
	// after is where to land once signed in.
	after  string
	gen    int
	width  int
	height int
	status string

	screens map[string]screen
	footer  footer

	// keys is the F4 reference page; nil while closed.
	keys *help.Model
}

// New constructs a root model around a wired App. The UI starts on the
// loading screen until the stored session has been checked.
func New(a *appsvc.App) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	d := deps{app: a, ctx: ctx, theme: theme.Default()}
	m := &Model{
		deps:   d,
		cancel: cancel,
		route:  auth.PathLoading,
		after:  auth.PathHome,
		footer: newFooter(d.theme.Footer),
	}
	signIn := newAuthForm(d, false)
	m.screens = map[string]screen{
		auth.PathLoading:    loadingScreen{theme: d.theme},
		auth.PathSignIn:     signIn,
		auth.PathSignUp:     newAuthForm(d, true),
		auth.PathOnboarding: newOnboarding(d),
		auth.PathJournal:    newJournalScreen(d),
		auth.PathReflection: newReflectionScreen(d),
		auth.PathSummary:    newSummaryScreen(d),
	}
	return m
}

// watcher is implemented by session stores that can report changes made by
// other processes.
type watcher interface {
	Watch(ctx context.Context) (<-chan store.Event, error)
}

// Run launches the Bubble Tea program and blocks until it exits.
func Run(a *appsvc.App) error {
	m := New(a)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	unsubscribe := a.Auth.Subscribe(func(s auth.State) {
		go p.Send(authStateMsg{state: s})
	})
	defer unsubscribe()

	if w, ok := a.Sessions.(watcher); ok {
		events, err := w.Watch(m.ctx)
		if err != nil {
			a.Log.Warn().Err(err).Msg("not following session changes")
		} else {
			go func() {
				for ev := range events {
					if ev.Type == store.EventSessionChanged {
						p.Send(sessionChangedMsg{})
					}
				}
			}()
		}
	}

	_, err := p.Run()
	return err
}

// Init resolves the stored session.
func (m *Model) Init() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return authInitMsg{state: a.Auth.Init(ctx)}
	}
}

// Update routes messages to the current screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		if m.keys != nil {
			m.keys.SetSize(m.helpSize())
		}
	case tea.KeyPressMsg:
		if cmd, handled := m.handleGlobalKey(v); handled {
			return m, cmd
		}
		if m.keys != nil {
			return m, m.keys.Update(v)
		}
	case authInitMsg:
		return m, m.navigate(m.landing(m.after))
	case authStateMsg:
		return m, m.onAuthState(v.state)
	case sessionChangedMsg:
		return m, m.resync()
	case navigateMsg:
		if v.status != "" {
			m.status = v.status
		}
		return m, m.navigate(v.path)
	case authResultMsg:
		if v.generation() != m.gen {
			return m, nil
		}
		if v.err == nil && v.signedIn {
			m.status = "Signed in as " + v.user.Email
			return m, m.navigate(m.landing(m.after))
		}
	case onboardedMsg:
		if v.generation() != m.gen {
			return m, nil
		}
		if v.err == nil {
			m.status = v.message
			return m, m.navigate(auth.PathHome)
		}
	case tagged:
		if v.generation() != m.gen {
			return m, nil
		}
	}

	if s := m.current(); s != nil {
		if cmd := s.update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if _, ok := msg.(tagged); ok {
		// Results can carry a 401 that the client already turned into a
		// signed-out state.
		if cmd := m.onAuthState(m.app.Auth.State()); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleGlobalKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		var leave tea.Cmd
		if s := m.current(); s != nil {
			leave = s.leave()
		}
		m.cancel()
		return tea.Sequence(leave, tea.Quit), true
	}
	if m.app.Auth.State() != auth.StateAuthenticated {
		return nil, false
	}
	if m.keys != nil && msg.String() == "esc" {
		m.keys = nil
		return nil, true
	}
	switch msg.String() {
	case "f4":
		if m.keys != nil {
			m.keys = nil
		} else {
			m.keys = help.New(m.helpSize())
		}
		return nil, true
	case "f1":
		return m.navigate(auth.PathJournal), true
	case "f2":
		return m.navigate(auth.PathReflection), true
	case "f3":
		return m.navigate(auth.PathSummary), true
	case "ctrl+o":
		m.keys = nil
		var leave tea.Cmd
		if s := m.current(); s != nil {
			leave = s.leave()
		}
		a, ctx := m.app, m.ctx
		m.status = "Signed out."
		return tea.Sequence(leave, func() tea.Msg {
			_ = a.Auth.SignOut(ctx)
			return authStateMsg{state: auth.StateUnauthenticated}
		}), true
	}
	return nil, false
}

// onAuthState moves off protected screens once the user is signed out. The
// sign-in form starts clean; the reason goes to the status line.
func (m *Model) onAuthState(state auth.State) tea.Cmd {
	if state == auth.StateAuthenticated || !auth.Protected(m.route) || m.route == auth.PathLoading {
		return nil
	}
	if m.status != "Signed out." {
		m.status = msgExpired
	}
	m.after = m.route
	return m.navigate(m.route)
}

// resync follows a sign-in or sign-out made outside this process. Only the
// stored token is compared; the auth controller does the rest.
func (m *Model) resync() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		_, stored := a.Sessions.Token()
		switch state := a.Auth.State(); {
		case !stored && state == auth.StateAuthenticated:
			a.Auth.Expire()
			return authStateMsg{state: auth.StateUnauthenticated}
		case stored && state == auth.StateUnauthenticated:
			return authInitMsg{state: a.Auth.Init(ctx)}
		}
		return nil
	}
}

// landing picks where a signed-in user goes after path.
func (m *Model) landing(path string) string {
	if m.app.Auth.State() == auth.StateAuthenticated && m.app.Summary.NeedsOnboarding() {
		return auth.PathOnboarding
	}
	return path
}

// navigate resolves path against the auth state and switches screens. Each
// switch starts a new generation so results from the previous screen are
// dropped.
func (m *Model) navigate(path string) tea.Cmd {
	m.keys = nil
	target := auth.ResolveRoute(m.app.Auth.State(), path)
	if target == m.route {
		return nil
	}
	var cmds []tea.Cmd
	if s := m.current(); s != nil {
		cmds = append(cmds, s.leave())
	}
	m.gen++
	m.route = target
	if target == auth.PathSignIn || target == auth.PathSignUp {
		if m.after == auth.PathSignIn || m.after == auth.PathSignUp || m.after == auth.PathLoading {
			m.after = auth.PathHome
		}
	}
	if s := m.current(); s != nil {
		cmds = append(cmds, s.enter(m.gen))
	}
	return tea.Batch(cmds...)
}

// helpSize leaves room for the footer below the key reference.
func (m *Model) helpSize() (int, int) {
	width, height := m.width, m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return width, maxInt(1, height-3)
}

func (m *Model) current() screen {
	return m.screens[m.route]
}

// Route reports the current screen path.
func (m *Model) Route() string { return m.route }

// View renders the current screen above the footer.
func (m *Model) View() string {
	s := m.current()
	if s == nil {
		return "initializing…"
	}
	width, height := m.width, m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	signedIn := m.app.Auth.State() == auth.StateAuthenticated
	hint := s.help()
	if signedIn {
		hint += " • F4 keys"
	}
	if m.keys != nil {
		hint = "↑↓ scroll • esc/F4 close"
	}
	foot := m.footer.view(width, m.route, signedIn, hint, m.status)
	bodyHeight := maxInt(1, height-lipgloss.Height(foot))
	var body string
	if m.keys != nil {
		m.keys.SetSize(width, bodyHeight)
		body = m.keys.View()
	} else {
		body = s.view(width, bodyHeight)
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return strings.TrimRight(body, "\n") + "\n" + foot
}

type loadingScreen struct {
	theme theme.Theme
}

func (loadingScreen) enter(int) tea.Cmd      { return nil }
func (loadingScreen) leave() tea.Cmd         { return nil }
func (loadingScreen) update(tea.Msg) tea.Cmd { return nil }
func (loadingScreen) help() string           { return "ctrl+c quit" }

func (l loadingScreen) view(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		l.theme.Panel.Muted.Render("Checking your session…"))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
