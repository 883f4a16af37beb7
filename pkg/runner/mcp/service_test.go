package mcp

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/devserver"
	"tableflip.dev/tranquil/pkg/store"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	srv, err := devserver.New(devserver.Options{BcryptCost: bcrypt.MinCost, Log: zerolog.Nop()})
	if err != nil {
		t.Fatalf("devserver.New failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	a, err := app.New(app.Options{
		Config: store.StaticConfig{Path: t.TempDir(), API: ts.URL + "/api", Zone: time.UTC},
		Log:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	return a
}

func signedInService(t *testing.T) *Service {
	t.Helper()
	a := newTestApp(t)
	if _, err := a.Auth.SignUp(context.Background(), "mcp@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return NewService(a)
}

func TestServiceRequiresSignIn(t *testing.T) {
	svc := NewService(newTestApp(t))

	_, err := svc.JournalDates(context.Background())
	if err == nil || !strings.Contains(err.Error(), "tranquil login") {
		t.Fatalf("expected sign-in hint, got %v", err)
	}
}

func TestServiceSaveJournal(t *testing.T) {
	ctx := context.Background()
	svc := signedInService(t)

	dto, err := svc.SaveJournal(ctx, "2024-03-14", "  A quiet morning.  ")
	if err != nil {
		t.Fatalf("SaveJournal failed: %v", err)
	}
	if dto.Date != "2024-03-14" {
		t.Fatalf("expected date 2024-03-14, got %s", dto.Date)
	}
	if dto.Content != "A quiet morning." {
		t.Fatalf("expected trimmed content, got %q", dto.Content)
	}

	dates, err := svc.JournalDates(ctx)
	if err != nil {
		t.Fatalf("JournalDates failed: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2024-03-14" {
		t.Fatalf("expected [2024-03-14], got %v", dates)
	}
}

func TestServiceSaveJournalRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := signedInService(t)

	if _, err := svc.SaveJournal(ctx, "", "   \n "); !errors.Is(err, ErrEmptyEntry) {
		t.Fatalf("expected ErrEmptyEntry, got %v", err)
	}
	if _, err := svc.SaveJournal(ctx, "14/03/2024", "text"); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func TestServiceChatSendAndHistory(t *testing.T) {
	ctx := context.Background()
	svc := signedInService(t)

	sessions, err := svc.ChatSessions(ctx)
	if err != nil {
		t.Fatalf("ChatSessions failed: %v", err)
	}
	if len(sessions) != 1 || !sessions[0].Today {
		t.Fatalf("expected today's session to be created, got %+v", sessions)
	}

	sent, err := svc.ChatSend(ctx, "Why is sleep so hard lately?")
	if err != nil {
		t.Fatalf("ChatSend failed: %v", err)
	}
	if len(sent) < 2 {
		t.Fatalf("expected the message and a reply, got %+v", sent)
	}
	last := sent[len(sent)-1]
	if last.Role != "assistant" || last.Status != "confirmed" {
		t.Fatalf("expected a confirmed assistant reply, got %+v", last)
	}

	history, err := svc.History(ctx, "")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	found := false
	for _, m := range history {
		if m.Role == "user" && m.Content == "Why is sleep so hard lately?" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the sent message in history, got %+v", history)
	}

	again, err := svc.ChatSessions(ctx)
	if err != nil {
		t.Fatalf("ChatSessions failed: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("expected one session after a second listing, got %d", len(again))
	}
}

func TestServiceJournalSummary(t *testing.T) {
	ctx := context.Background()
	svc := signedInService(t)

	if _, err := svc.SaveJournal(ctx, "2024-03-14", "Walked by the river."); err != nil {
		t.Fatalf("SaveJournal failed: %v", err)
	}
	sum, err := svc.JournalSummary(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("JournalSummary failed: %v", err)
	}
	if !strings.Contains(sum.SummaryText, "1 entry") {
		t.Fatalf("expected a one entry summary, got %q", sum.SummaryText)
	}

	if _, err := svc.JournalSummary(ctx, "March", "2024-03-31"); err == nil {
		t.Fatalf("expected invalid start date error")
	}
}

func TestServiceProfileWithoutOne(t *testing.T) {
	svc := signedInService(t)

	p, err := svc.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if len(p.Fields) != 0 {
		t.Fatalf("expected no profile fields, got %v", p.Fields)
	}
}

func TestTemplateArg(t *testing.T) {
	if got := templateArg("abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := templateArg([]string{"first", "second"}); got != "first" {
		t.Fatalf("expected first, got %q", got)
	}
	if got := templateArg(42); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
