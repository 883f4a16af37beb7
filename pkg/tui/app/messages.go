package teaui

import (
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/auth"
)

// tag stamps an async result with the navigation generation that started it.
type tag struct {
	gen int
}

func (t tag) generation() int { return t.gen }

type tagged interface {
	generation() int
}

// authStateMsg is sent by the auth controller on every transition, including
// the API client's unauthorized hook.
type authStateMsg struct {
	state auth.State
}

// navigateMsg asks the root model to switch screens.
type navigateMsg struct {
	path   string
	status string
}

func navigateTo(path, status string) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{path: path, status: status}
	}
}

// sessionChangedMsg reports that the stored credential changed on disk,
// usually because another tranquil process signed in or out.
type sessionChangedMsg struct{}

type authInitMsg struct {
	state auth.State
}

type authResultMsg struct {
	tag
	signUp   bool
	user     api.User
	signedIn bool
	err      error
}

type journalLoadedMsg struct {
	tag
	err error
}

type journalSelectedMsg struct {
	tag
	err error
}

type journalSavedMsg struct {
	tag
	err error
}

type reflectionLoadedMsg struct {
	tag
	err error
}

type reflectionSelectedMsg struct {
	tag
	err error
}

type reflectionSentMsg struct {
	tag
	err error
}

type reflectionSummaryMsg struct {
	tag
	summary api.ChatSummary
	err     error
}

// reflectionTickMsg redraws the transcript while a send is in flight.
type reflectionTickMsg struct {
	tag
}

type summaryLoadedMsg struct {
	tag
	profile  api.Profile
	insights string
	journal  api.JournalSummary
	err      error
}

type insightsMsg struct {
	tag
	insights string
	err      error
}

type onboardedMsg struct {
	tag
	message string
	err     error
}
