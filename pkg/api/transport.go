package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

var bearerPattern = regexp.MustCompile(`(?i)(Authorization: Bearer )\S+`)

// debugTransport logs full request and response dumps.
type debugTransport struct {
	base http.RoundTripper
	log  zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		dt.log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_dump", bearerPattern.ReplaceAllString(string(dump), "${1}[redacted]")).
			Msg("HTTP request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		dt.log.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		dt.log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status_code", resp.StatusCode).
			Str("response_dump", string(dump)).
			Msg("HTTP response")
	}
	return resp, nil
}

// metricsTransport counts requests and records latency per route.
type metricsTransport struct {
	base http.RoundTripper
}

func (mt *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	route := routeFromContext(req.Context())
	if route == "" {
		route = req.URL.Path
	}
	start := time.Now()
	resp, err := mt.base.RoundTrip(req)
	requestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())

	code := "error"
	if err == nil {
		code = fmt.Sprint(resp.StatusCode)
	}
	requestsTotal.WithLabelValues(req.Method, route, code).Inc()
	return resp, err
}
