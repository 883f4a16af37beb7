package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/auth"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/store"
)

func d(day int) entry.Date { return entry.NewDate(2025, time.March, day) }

func TestBuildReport(t *testing.T) {
	dates := []entry.Date{
		entry.NewDate(2025, time.February, 27),
		entry.NewDate(2025, time.February, 28),
		d(1), d(2), d(5), d(6), d(7), d(9), d(10),
	}
	r := buildReport(dates, entry.NewDate(2025, time.February, 28), d(11))

	if r.Total != 8 {
		t.Errorf("total = %d, want 8", r.Total)
	}
	if len(r.Months) != 2 || r.Months[0].Month != "February" || len(r.Months[1].Days) != 7 {
		t.Errorf("months = %+v", r.Months)
	}
	// Feb 27 is outside the window, so the Feb 28 run is 3 long.
	if r.Longest != 3 {
		t.Errorf("longest = %d, want 3", r.Longest)
	}
	// The 11th is not written yet; the run ending on the 10th still counts.
	if r.Streak != 2 {
		t.Errorf("streak = %d, want 2", r.Streak)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	r := buildReport(nil, d(1), d(31))
	if r.Total != 0 || r.Streak != 0 || r.Longest != 0 || len(r.Months) != 0 {
		t.Errorf("report = %+v", r)
	}
	if got := r.String(); got != "0 entries from 2025-03-01 to 2025-03-31, current streak 0, longest 0" {
		t.Errorf("String() = %q", got)
	}
}

func TestNewExpiresSessionOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail": "Invalid token"}`)
	}))
	defer srv.Close()

	sessions := store.NewMemory()
	_ = sessions.SetSession(store.Session{Token: "stale", UserID: "u1"})
	a, err := New(Options{
		Config:   store.StaticConfig{Path: t.TempDir(), API: srv.URL + "/api", Zone: time.UTC},
		Sessions: sessions,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.RequireSession(context.Background()); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("RequireSession() = %v", err)
	}
	if a.Auth.State() != auth.StateUnauthenticated {
		t.Errorf("state = %s", a.Auth.State())
	}
	if _, ok := sessions.Token(); ok {
		t.Error("token kept after 401")
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New() without config succeeded")
	}
}
