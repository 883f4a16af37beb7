// Package api is the Tranquil HTTP API client. A Client attaches the stored
// bearer token to each request, clears it when the server rejects it, and
// normalizes every endpoint's response into one schema.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TokenStore is the part of the session store the client needs. Reads must
// tolerate the token being cleared concurrently.
type TokenStore interface {
	Token() (string, bool)
	ClearTokenIf(token string) (bool, error)
}

type Client struct {
	baseURL string
	http    *http.Client
	rest    *resty.Client
	tokens  TokenStore
	log     zerolog.Logger
	debug   bool
	timeout time.Duration

	mu             sync.Mutex
	onUnauthorized func()
}

// New constructs a Client for the API rooted at baseURL (for example
// http://localhost:8000/api).
func New(baseURL string, tokens TokenStore, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("api: base URL is empty")
	}
	if tokens == nil {
		return nil, errors.New("api: token store is nil")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	// Work on a copy so a caller-supplied client is not mutated.
	hc := *c.http
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = &metricsTransport{base: base}
	if c.debug {
		rt = &debugTransport{base: rt, log: c.log}
	}
	hc.Transport = rt
	c.http = &hc

	c.rest = resty.NewWithClient(c.http).
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log: c.log})
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized replaces the handler run after a 401/403. Front ends that
// are built after the client use it to hook navigation in.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

type call struct {
	op     string
	method string
	path   string
	route  string
	query  map[string]string
	body   any
	out    any
	// public calls never carry the token and never expire the session.
	public bool
}

// Do issues method on path relative to the base URL with body encoded as JSON
// and the response decoded into out. Either may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, call{
		op:     strings.ToLower(method) + " " + path,
		method: method,
		path:   path,
		body:   body,
		out:    out,
	})
}

func (c *Client) do(ctx context.Context, cl call) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	route := cl.route
	if route == "" {
		route = cl.path
	}
	req := c.rest.R().SetContext(withRoute(ctx, route))

	var sent string
	if !cl.public {
		if token, ok := c.tokens.Token(); ok {
			sent = token
			req.SetHeader("Authorization", "Bearer "+token)
		}
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Debug().Err(err).Str("op", cl.op).Msg("no response")
		return &Error{Kind: KindNetwork, Op: cl.op, Message: msgNoResponse, Err: err}
	}

	if status := resp.StatusCode(); status >= 400 {
		apiErr := statusError(cl.op, status, resp.Body())
		if apiErr.Kind == KindUnauthorized {
			if cl.public {
				apiErr.Kind = KindClient
			} else {
				c.expire(sent)
			}
		}
		c.log.Debug().Str("op", cl.op).Int("status", status).Str("kind", apiErr.Kind.String()).Msg(apiErr.Message)
		return apiErr
	}

	body := resp.Body()
	if cl.out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, cl.out); err != nil {
			return &Error{
				Kind:    KindServer,
				Status:  resp.StatusCode(),
				Op:      cl.op,
				Message: "Unexpected response from server.",
				Err:     fmt.Errorf("%s: decode: %w", cl.op, err),
			}
		}
	}
	return nil
}

// expire clears the credential that was rejected and notifies the front end.
// A rejection of an older token must not sign out a newer session.
func (c *Client) expire(sent string) {
	unauthorizedTotal.Inc()
	if sent != "" {
		cleared, err := c.tokens.ClearTokenIf(sent)
		if err != nil {
			c.log.Warn().Err(err).Msg("clear rejected session")
		}
		if !cleared {
			if current, ok := c.tokens.Token(); ok && current != sent {
				return
			}
		}
	}
	c.mu.Lock()
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}
