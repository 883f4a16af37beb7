package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout bounds each request. The default is no timeout beyond the
// caller's context. It applies to the client's own copy, whatever the order
// of options.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("api: http timeout must be > 0")
		}
		c.timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client. Its transport is still
// wrapped with metrics and, when enabled, debug logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("api: nil http client")
		}
		c.http = hc
		return nil
	}
}

// WithDebugLogging dumps every request and response at debug level.
// Authorization headers are redacted.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}

// WithLogger sets the logger used for debug dumps and warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithUnauthorizedHandler registers fn to run after a 401/403 has cleared the
// session. Interactive front ends use it to move to the sign-in view.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) error {
		c.onUnauthorized = fn
		return nil
	}
}
