// Package app wires the client for one process so the CLI, the terminal UI
// and the MCP server share the same session store, API client and
// controllers.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/auth"
	"tableflip.dev/tranquil/pkg/journal"
	"tableflip.dev/tranquil/pkg/reflection"
	"tableflip.dev/tranquil/pkg/store"
	"tableflip.dev/tranquil/pkg/summary"
)

// ErrSignedOut is returned by RequireSession when nobody is signed in.
var ErrSignedOut = errors.New("not signed in; run `tranquil login`")

// App holds the components of a running client.
type App struct {
	Config   store.Config
	Sessions store.Sessions
	Client   *api.Client
	Auth     *auth.Controller

	Journal    *journal.Workspace
	Reflection *reflection.Controller
	Summary    *summary.Service

	Log zerolog.Logger
}

// Options select the pieces New builds around. Config is required.
type Options struct {
	Config   store.Config
	Sessions store.Sessions
	Log      zerolog.Logger

	HTTPClient  *http.Client
	HTTPTimeout time.Duration
}

// Open loads configuration and the on-disk session store and wires an App.
func Open(log zerolog.Logger) (*App, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	sessions, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	return New(Options{Config: cfg, Sessions: sessions, Log: log})
}

// New wires an App from opts. A nil Sessions gets an in-memory store.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: no config")
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = store.NewMemory()
	}
	log := opts.Log

	clientOpts := []api.Option{
		api.WithLogger(log),
		api.WithDebugLogging(opts.Config.Debug()),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	if opts.HTTPTimeout > 0 {
		clientOpts = append(clientOpts, api.WithHTTPTimeout(opts.HTTPTimeout))
	}
	client, err := api.New(opts.Config.APIBaseURL(), sessions, clientOpts...)
	if err != nil {
		return nil, err
	}

	loc := opts.Config.Location()
	a := &App{
		Config:   opts.Config,
		Sessions: sessions,
		Client:   client,
		Auth:     auth.New(client, sessions, auth.WithLogger(log)),
		Journal: journal.NewWorkspace(client,
			journal.WithLogger(log),
			journal.WithLocation(loc),
		),
		Reflection: reflection.New(client, sessions,
			reflection.WithLogger(log),
			reflection.WithLocation(loc),
		),
		Summary: summary.New(client, sessions, log),
		Log:     log,
	}
	client.OnUnauthorized(a.Auth.Expire)
	return a, nil
}

// RequireSession resolves the stored session and fails with ErrSignedOut
// unless it is valid.
func (a *App) RequireSession(ctx context.Context) (api.User, error) {
	if a.Auth.Init(ctx) != auth.StateAuthenticated {
		return api.User{}, ErrSignedOut
	}
	user, _ := a.Auth.User()
	return user, nil
}
