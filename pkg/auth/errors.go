package auth

import (
	"errors"
	"net/http"
	"strings"

	"tableflip.dev/tranquil/pkg/api"
)

// Reason says why an auth operation failed.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonValidation
	ReasonDuplicateAccount
	ReasonBadCredentials
	ReasonServer
)

// Error is a failed sign-up, sign-in or refresh with a message fit for the
// user.
type Error struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Reason so callers can use errors.Is with the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

var (
	ErrValidation       = &Error{Reason: ReasonValidation, Message: "auth: validation failed"}
	ErrDuplicateAccount = &Error{Reason: ReasonDuplicateAccount, Message: "auth: account already exists"}
	ErrBadCredentials   = &Error{Reason: ReasonBadCredentials, Message: "auth: bad credentials"}
	ErrServer           = &Error{Reason: ReasonServer, Message: "auth: server error"}
)

const (
	msgRequired       = "Email and password are required."
	msgDuplicate      = "An account with this email already exists."
	msgSignupInvalid  = "Signup failed. Check email/password validity."
	msgBadCredentials = "Invalid email or password."
)

func signUpError(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return &Error{Reason: ReasonUnknown, Message: "Signup failed: " + err.Error(), Err: err}
	}
	switch {
	case apiErr.Status == http.StatusConflict || mentionsDuplicate(apiErr.Message):
		// The backend wraps duplicates in a 500 too.
		return &Error{Reason: ReasonDuplicateAccount, Message: msgDuplicate, Err: err}
	case apiErr.Kind == api.KindValidation:
		return &Error{Reason: ReasonValidation, Message: apiErr.Message, Err: err}
	case apiErr.Kind == api.KindNetwork:
		return &Error{Reason: ReasonServer, Message: apiErr.Message, Err: err}
	case apiErr.Kind == api.KindServer:
		return &Error{Reason: ReasonServer, Message: prefixed("Signup failed: ", apiErr.Message), Err: err}
	}
	return &Error{Reason: ReasonUnknown, Message: msgSignupInvalid, Err: err}
}

func prefixed(prefix, msg string) string {
	if strings.HasPrefix(msg, prefix) {
		return msg
	}
	return prefix + msg
}

func signInError(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return &Error{Reason: ReasonUnknown, Message: "Login failed: " + err.Error(), Err: err}
	}
	switch apiErr.Kind {
	case api.KindValidation:
		return &Error{Reason: ReasonValidation, Message: apiErr.Message, Err: err}
	case api.KindNetwork:
		return &Error{Reason: ReasonServer, Message: apiErr.Message, Err: err}
	case api.KindServer:
		return &Error{Reason: ReasonServer, Message: prefixed("Login failed: ", apiErr.Message), Err: err}
	case api.KindClient, api.KindUnauthorized, api.KindNotFound:
		msg := msgBadCredentials
		if apiErr.Message != "" && !strings.HasPrefix(apiErr.Message, "Request failed") {
			msg = apiErr.Message
		}
		return &Error{Reason: ReasonBadCredentials, Message: msg, Err: err}
	}
	return &Error{Reason: ReasonUnknown, Message: "Login failed: " + apiErr.Message, Err: err}
}

func mentionsDuplicate(msg string) bool {
	msg = strings.ToLower(msg)
	for _, hint := range []string{"already registered", "already exists", "duplicate", "already in use"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
