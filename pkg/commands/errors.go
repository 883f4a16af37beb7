package commands

import "errors"

var errSessionExpired = errors.New("session expired; run `tranquil login`")
