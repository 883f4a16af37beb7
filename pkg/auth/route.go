package auth

import "strings"

// Paths the front ends navigate between.
const (
	PathLoading    = "/loading"
	PathSignIn     = "/login"
	PathSignUp     = "/signup"
	PathOnboarding = "/onboarding"
	PathJournal    = "/journal"
	PathReflection = "/reflection"
	PathSummary    = "/summary"

	// PathHome is where signed-in users land.
	PathHome = PathJournal
)

// publicOnly paths make no sense once signed in.
var publicOnly = map[string]bool{
	PathSignIn: true,
	PathSignUp: true,
}

// ResolveRoute returns where a navigation to path should land given state.
// It is evaluated once per navigation and is idempotent: resolving its own
// result returns the same path, so guards can never bounce between each
// other.
func ResolveRoute(state State, path string) string {
	path = clean(path)
	switch {
	case path == PathLoading:
		// Loading is only ever a waypoint.
		if state == StateLoading {
			return PathLoading
		}
		if state == StateAuthenticated {
			return PathHome
		}
		return PathSignIn
	case publicOnly[path]:
		if state == StateAuthenticated {
			return PathHome
		}
		return path
	}

	switch state {
	case StateLoading:
		return PathLoading
	case StateUnauthenticated:
		return PathSignIn
	}
	return path
}

func clean(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == "/" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return PathHome
	}
	return path
}

// Protected reports whether path needs a signed-in user.
func Protected(path string) bool {
	path = clean(path)
	return path != PathLoading && !publicOnly[path]
}
