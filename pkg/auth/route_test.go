package auth

import "testing"

func TestResolveRoute(t *testing.T) {
	cases := []struct {
		state State
		path  string
		want  string
	}{
		{StateLoading, PathJournal, PathLoading},
		{StateLoading, PathSignIn, PathSignIn},
		{StateUnauthenticated, PathJournal, PathSignIn},
		{StateUnauthenticated, PathReflection, PathSignIn},
		{StateUnauthenticated, PathSignUp, PathSignUp},
		{StateUnauthenticated, PathLoading, PathSignIn},
		{StateAuthenticated, PathSignIn, PathHome},
		{StateAuthenticated, PathSignUp, PathHome},
		{StateAuthenticated, PathSummary, PathSummary},
		{StateAuthenticated, "/", PathHome},
		{StateAuthenticated, "//", PathHome},
		{StateAuthenticated, "///", PathHome},
		{StateAuthenticated, "summary/", PathSummary},
		{StateAuthenticated, "/journal?date=2025-01-01", PathJournal},
		{StateAuthenticated, PathLoading, PathHome},
		{StateUnauthenticated, "/nowhere", PathSignIn},
	}
	for _, tc := range cases {
		if got := ResolveRoute(tc.state, tc.path); got != tc.want {
			t.Fatalf("ResolveRoute(%s, %q) = %q, want %q", tc.state, tc.path, got, tc.want)
		}
	}
}

func TestResolveRouteNeverLoops(t *testing.T) {
	paths := []string{"", "/", "//", "///", PathLoading, PathSignIn, PathSignUp, PathOnboarding, PathJournal, PathReflection, PathSummary, "/other"}
	states := []State{StateLoading, StateAuthenticated, StateUnauthenticated}
	for _, s := range states {
		for _, p := range paths {
			first := ResolveRoute(s, p)
			if second := ResolveRoute(s, first); second != first {
				t.Fatalf("state %s: %q -> %q -> %q", s, p, first, second)
			}
		}
	}
}

func TestProtected(t *testing.T) {
	if Protected(PathSignIn) || Protected(PathSignUp) || Protected(PathLoading) {
		t.Fatalf("public paths reported as protected")
	}
	if !Protected(PathJournal) || !Protected("/unknown") {
		t.Fatalf("protected paths reported as public")
	}
}
