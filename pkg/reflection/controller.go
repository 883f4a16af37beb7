// Package reflection runs the chat screen: one session per day, past sessions
// read-only, and an optimistic transcript for the current one.
package reflection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/entry"
)

var (
	ErrNoSession       = errors.New("reflection: no session selected")
	ErrUnknownSession  = errors.New("reflection: unknown session")
	ErrReadOnlySession = errors.New("reflection: only today's session accepts messages")
)

// FailedPrefix starts the local notice added when a send fails.
const FailedPrefix = "Message failed to send: "

// Backend is the subset of the API client the chat screen uses.
type Backend interface {
	ChatSessions(ctx context.Context) ([]api.ChatSession, error)
	CreateChatSession(ctx context.Context) (api.ChatSession, error)
	SessionMessages(ctx context.Context, sessionID string) ([]api.ChatMessage, error)
	SendSessionMessage(ctx context.Context, sessionID, text string) (api.Exchange, error)
	ChatSummary(ctx context.Context, sessionID string) (api.ChatSummary, error)
	CreateChatSummary(ctx context.Context, sessionID string) (api.ChatSummary, error)
}

// Preferences remembers the last selected session across runs.
type Preferences interface {
	LastChatSession() (string, bool)
	SetLastChatSession(id string) error
}

type Controller struct {
	backend Backend
	prefs   Preferences
	log     zerolog.Logger
	loc     *time.Location
	now     func() time.Time

	loadMu sync.Mutex

	mu         sync.Mutex
	sessions   []api.ChatSession
	current    string
	selected   string
	transcript Transcript
	gen        uint64
}

type Option func(*Controller)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithLocation sets the zone that decides which session is today's.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller with nothing loaded. prefs may be nil.
func New(backend Backend, prefs Preferences, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		prefs:   prefs,
		log:     zerolog.Nop(),
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) today() entry.Date {
	return entry.DateOf(c.now().In(c.loc))
}

// Load fetches the session list, creates today's session when there is none,
// and selects the last viewed session if it still exists, else today's.
func (c *Controller) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	sessions, err := c.backend.ChatSessions(ctx)
	if err != nil {
		return fmt.Errorf("reflection: load sessions: %w", err)
	}

	today := c.today()
	current := ""
	for _, s := range sessions {
		if s.CreatedAt.OnDate(today, c.loc) {
			current = s.ID
			break
		}
	}
	if current == "" {
		created, err := c.backend.CreateChatSession(ctx)
		if err != nil {
			return fmt.Errorf("reflection: start today's session: %w", err)
		}
		if created.CreatedAt.IsZero() {
			created.CreatedAt = entry.Timestamp{Time: c.now()}
		}
		c.log.Debug().Str("session", created.ID).Msg("created today's session")
		sessions = append([]api.ChatSession{created}, sessions...)
		current = created.ID
	}

	c.mu.Lock()
	c.sessions = sessions
	c.current = current
	c.mu.Unlock()

	selected := current
	if c.prefs != nil {
		if last, ok := c.prefs.LastChatSession(); ok && c.has(last) {
			selected = last
		}
	}
	return c.Select(ctx, selected)
}

func (c *Controller) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Select shows session id. Responses for a previous selection that arrive
// later are dropped.
func (c *Controller) Select(ctx context.Context, id string) error {
	if !c.has(id) {
		return ErrUnknownSession
	}
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.selected = id
	c.transcript.Reset(nil)
	c.mu.Unlock()

	if c.prefs != nil {
		if err := c.prefs.SetLastChatSession(id); err != nil {
			c.log.Warn().Err(err).Msg("remember chat session")
		}
	}

	msgs, err := c.backend.SessionMessages(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reflection: load messages: %w", err)
	}
	c.transcript.Reset(msgs)
	return nil
}

// InputEnabled reports whether the selected session accepts messages.
func (c *Controller) InputEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected != "" && c.selected == c.current
}

// Send posts text to today's session. The message shows immediately as
// pending; on failure it is marked failed and a local notice follows it.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return api.Validation("send message", "Message cannot be empty.")
	}

	c.mu.Lock()
	switch {
	case c.selected == "":
		c.mu.Unlock()
		return ErrNoSession
	case c.selected != c.current:
		c.mu.Unlock()
		return ErrReadOnlySession
	}
	id, gen := c.selected, c.gen
	corr := c.transcript.AddPending(text, c.now())
	c.mu.Unlock()

	ex, err := c.backend.SendSessionMessage(ctx, id, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Debug().Str("session", id).Msg("dropped reply for a session no longer shown")
		return err
	}
	if err != nil {
		c.transcript.Fail(corr)
		c.transcript.AppendLocal(api.RoleAssistant, FailedPrefix+message(err), c.now())
		return err
	}

	c.transcript.Confirm(corr, ex.UserMessage)
	if ex.AIMessage != nil {
		reply := *ex.AIMessage
		if sent, ok := c.transcript.Item(corr); ok && reply.CreatedAt.Before(sent.CreatedAt) {
			reply.CreatedAt = entry.Timestamp{Time: sent.CreatedAt}
		}
		c.transcript.Append(reply)
	}
	return nil
}

func message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Summarize returns the summary of the selected session, asking the server
// to compute one when none is stored.
func (c *Controller) Summarize(ctx context.Context) (api.ChatSummary, error) {
	id := c.Selected()
	if id == "" {
		return api.ChatSummary{}, ErrNoSession
	}
	sum, err := c.backend.ChatSummary(ctx, id)
	if err == nil && strings.TrimSpace(sum.SummaryText) != "" {
		return sum, nil
	}
	if err != nil && !api.IsNotFound(err) {
		return api.ChatSummary{}, err
	}
	return c.backend.CreateChatSummary(ctx, id)
}

// Sessions returns the loaded sessions, newest first.
func (c *Controller) Sessions() []api.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.ChatSession(nil), c.sessions...)
}

// Current is the id of today's session.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Transcript returns the visible items of the selected session.
func (c *Controller) Transcript() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Items()
}
