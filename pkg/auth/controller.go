// Package auth tracks who is signed in. The Controller is the only writer of
// the session store; ResolveRoute decides where navigation lands for a given
// auth state.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/store"
)

// State of the signed-in user as seen by the front end.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "loading"
}

// Backend is the subset of the API client the controller uses.
type Backend interface {
	Signup(ctx context.Context, creds api.Credentials) (api.AuthResponse, error)
	Login(ctx context.Context, creds api.Credentials) (api.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (api.AuthResponse, error)
	Protected(ctx context.Context) (api.User, error)
}

const defaultInitTimeout = 10 * time.Second

type Controller struct {
	backend  Backend
	sessions store.Sessions
	log      zerolog.Logger

	initTimeout time.Duration
	now         func() time.Time

	mu        sync.RWMutex
	state     State
	user      api.User
	listeners map[int]func(State)
	nextID    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitTimeout bounds the session check Init performs.
func WithInitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.initTimeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithClock replaces time.Now, for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller in StateLoading. Call Init to resolve it.
func New(backend Backend, sessions store.Sessions, opts ...Option) *Controller {
	c := &Controller{
		backend:     backend,
		sessions:    sessions,
		log:         zerolog.Nop(),
		initTimeout: defaultInitTimeout,
		now:         time.Now,
		state:       StateLoading,
		listeners:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// User returns the signed-in user; ok is false unless authenticated.
func (c *Controller) User() (api.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.state == StateAuthenticated
}

// Subscribe registers fn for state transitions and returns a function that
// removes it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) set(state State, user api.User) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.user = user
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	if changed {
		c.log.Debug().Str("state", state.String()).Msg("auth state")
		for _, fn := range listeners {
			fn(state)
		}
	}
}

// Init resolves the loading state from the stored credential. It always
// leaves loading, even when the check fails or times out.
func (c *Controller) Init(ctx context.Context) State {
	sess, ok := c.sessions.Session()
	if !ok {
		c.set(StateUnauthenticated, api.User{})
		return StateUnauthenticated
	}

	if claims, err := api.TokenClaims(sess.Token); err == nil && claims.Expired(c.now()) {
		c.log.Debug().Msg("stored token expired")
		if err := c.sessions.ClearToken(); err != nil {
			c.log.Warn().Err(err).Msg("clear expired session")
		}
		c.set(StateUnauthenticated, api.User{})
		return StateUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, c.initTimeout)
	defer cancel()

	user, err := c.backend.Protected(ctx)
	if err != nil {
		// A 401 has already cleared the store through the client. Anything
		// else leaves the credential for the next run.
		c.log.Debug().Err(err).Msg("session check failed")
		c.set(StateUnauthenticated, api.User{})
		return StateUnauthenticated
	}

	if user.ID == "" {
		user.ID = sess.UserID
	}
	if user.Email == "" {
		user.Email = sess.Email
	}
	if user.ID != sess.UserID || user.Email != sess.Email {
		sess.UserID, sess.Email = user.ID, user.Email
		if err := c.sessions.SetSession(sess); err != nil {
			c.log.Warn().Err(err).Msg("update cached user")
		}
	}
	c.set(StateAuthenticated, user)
	return StateAuthenticated
}

// SignUp creates an account. When the server hands back a token the user is
// signed in; otherwise the state is unchanged and the caller should ask the
// user to sign in.
func (c *Controller) SignUp(ctx context.Context, email, password string) (api.User, error) {
	creds, err := credentials(email, password)
	if err != nil {
		return api.User{}, err
	}
	resp, err := c.backend.Signup(ctx, creds)
	if err != nil {
		return api.User{}, signUpError(err)
	}
	if resp.User.Email == "" {
		resp.User.Email = creds.Email
	}
	if resp.AccessToken == "" {
		return resp.User, nil
	}
	return c.establish(resp)
}

// SignIn exchanges credentials for a session.
func (c *Controller) SignIn(ctx context.Context, email, password string) (api.User, error) {
	creds, err := credentials(email, password)
	if err != nil {
		return api.User{}, err
	}
	resp, err := c.backend.Login(ctx, creds)
	if err != nil {
		return api.User{}, signInError(err)
	}
	if resp.AccessToken == "" {
		return api.User{}, &Error{Reason: ReasonServer, Message: "Login failed: the server did not return a token."}
	}
	if resp.User.Email == "" {
		resp.User.Email = creds.Email
	}
	return c.establish(resp)
}

func (c *Controller) establish(resp api.AuthResponse) (api.User, error) {
	sess := store.Session{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
	}
	if err := c.sessions.SetSession(sess); err != nil {
		return api.User{}, &Error{Reason: ReasonUnknown, Message: "Could not save your session.", Err: err}
	}
	c.set(StateAuthenticated, resp.User)
	return resp.User, nil
}

// SignOut clears the local session. There is no remote logout endpoint, so
// nothing here can fail in a way that keeps the user signed in.
func (c *Controller) SignOut(ctx context.Context) error {
	err := c.sessions.ClearToken()
	c.set(StateUnauthenticated, api.User{})
	if err != nil {
		return errors.Join(errors.New("auth: signed out, but clearing stored credentials failed"), err)
	}
	return nil
}

// Refresh rotates the token pair using the stored refresh token. It is never
// called implicitly.
func (c *Controller) Refresh(ctx context.Context) error {
	sess, ok := c.sessions.Session()
	if !ok || sess.RefreshToken == "" {
		return &Error{Reason: ReasonValidation, Message: "No refresh token is stored; sign in again."}
	}
	resp, err := c.backend.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return signInError(err)
	}
	if resp.AccessToken == "" {
		return &Error{Reason: ReasonServer, Message: "Refresh failed: the server did not return a token."}
	}
	sess.Token = resp.AccessToken
	if resp.RefreshToken != "" {
		sess.RefreshToken = resp.RefreshToken
	}
	if err := c.sessions.SetSession(sess); err != nil {
		return &Error{Reason: ReasonUnknown, Message: "Could not save your session.", Err: err}
	}
	c.set(StateAuthenticated, api.User{ID: sess.UserID, Email: sess.Email})
	return nil
}

// Expire is the API client's unauthorized hook: the store is already clear,
// so only the in-memory user goes.
func (c *Controller) Expire() {
	c.set(StateUnauthenticated, api.User{})
}

func credentials(email, password string) (api.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return api.Credentials{}, &Error{Reason: ReasonValidation, Message: msgRequired}
	}
	return api.Credentials{Email: email, Password: password}, nil
}
