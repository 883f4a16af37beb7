package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is raised before any request is sent.
	KindValidation
	// KindUnauthorized is a 401/403 on an authenticated call. The session has
	// already been cleared by the time the caller sees it.
	KindUnauthorized
	// KindNotFound is a 404.
	KindNotFound
	// KindClient is any other 4xx.
	KindClient
	// KindServer is a 5xx.
	KindServer
	// KindNetwork means no response was received.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

const (
	msgNoResponse = "No response from server. Check your connection."
	msgServer     = "Server error. Please try again later."
	msgExpired    = "Your session has expired. Please sign in again."
)

// Error is returned by every Client call that fails.
type Error struct {
	Kind    Kind
	Status  int
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsNetwork(err error) bool      { return KindOf(err) == KindNetwork }

// IsServer reports 5xx and network failures, the ones worth retrying by hand.
func IsServer(err error) bool {
	k := KindOf(err)
	return k == KindServer || k == KindNetwork
}

// Validation builds a pre-flight validation error.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindClient
	}
	return KindUnknown
}

// statusError builds the error for a non-2xx response, preferring the
// message the server put in the body.
func statusError(op string, status int, body []byte) *Error {
	kind := kindForStatus(status)
	msg := serverMessage(body)
	if msg == "" {
		switch kind {
		case KindServer:
			msg = msgServer
		case KindUnauthorized:
			msg = msgExpired
		default:
			msg = fmt.Sprintf("Request failed (HTTP %d).", status)
		}
	}
	return &Error{
		Kind:    kind,
		Status:  status,
		Op:      op,
		Message: msg,
		Err:     fmt.Errorf("%s: status %d", op, status),
	}
}

// serverMessage digs the human readable message out of an error body. The
// API uses {detail}, sometimes as a list of validation issues.
func serverMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
			return s
		}
		var issues []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &issues); err == nil {
			msgs := make([]string, 0, len(issues))
			for _, i := range issues {
				if i.Msg != "" {
					msgs = append(msgs, i.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
