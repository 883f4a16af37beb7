package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDiskStoreSessionSurvivesReload(t *testing.T) {
	base := t.TempDir()
	s, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := s.Token(); ok {
		t.Fatalf("fresh store should have no token")
	}

	want := Session{Token: "abc", RefreshToken: "r1", UserID: "u1", Email: "a@example.com"}
	if err := s.SetSession(want); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if err := s.SetWelcomeSeen(true); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if err := s.SetLastChatSession("sess-9"); err != nil {
		t.Fatalf("last chat: %v", err)
	}

	again, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := again.Session()
	if !ok || got != want {
		t.Fatalf("session mismatch: got %+v want %+v", got, want)
	}
	if !again.WelcomeSeen() {
		t.Fatalf("welcome flag lost")
	}
	if id, ok := again.LastChatSession(); !ok || id != "sess-9" {
		t.Fatalf("last chat session = %q", id)
	}
}

func TestDiskStoreClearTokenRemovesSession(t *testing.T) {
	base := t.TempDir()
	s, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.SetSession(Session{Token: "abc", UserID: "u1"}); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if err := s.SetWelcomeSeen(true); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	again, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := again.Session(); ok {
		t.Fatalf("session should be gone after clear")
	}
	if !again.WelcomeSeen() {
		t.Fatalf("clearing the token must not reset the welcome flag")
	}
}

func TestClearTokenIfIgnoresNewerToken(t *testing.T) {
	for name, s := range map[string]Sessions{
		"memory": NewMemory(),
		"disk":   mustLoad(t),
	} {
		t.Run(name, func(t *testing.T) {
			if err := s.SetToken("new"); err != nil {
				t.Fatalf("set: %v", err)
			}
			cleared, err := s.ClearTokenIf("old")
			if err != nil {
				t.Fatalf("clear if: %v", err)
			}
			if cleared {
				t.Fatalf("stale token should not clear the current one")
			}
			if tok, _ := s.Token(); tok != "new" {
				t.Fatalf("token = %q, want new", tok)
			}
			cleared, err = s.ClearTokenIf("new")
			if err != nil || !cleared {
				t.Fatalf("expected clear, got %v %v", cleared, err)
			}
			if _, ok := s.Token(); ok {
				t.Fatalf("token should be gone")
			}
		})
	}
}

func TestDiskStoreConcurrentReaders(t *testing.T) {
	s := mustLoad(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if tok, ok := s.Token(); ok && tok != "t" {
					t.Errorf("unexpected token %q", tok)
				}
			}
		}()
	}
	for j := 0; j < 20; j++ {
		_ = s.SetToken("t")
		_ = s.ClearToken()
	}
	wg.Wait()
}

func mustLoad(t *testing.T) *DiskStore {
	t.Helper()
	s, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestDiskStoreSetSessionPartialFailureMatchesDisk(t *testing.T) {
	base := t.TempDir()
	s, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.SetSession(Session{Token: "old", RefreshToken: "r0", UserID: "u0"}); err != nil {
		t.Fatalf("set session: %v", err)
	}

	// A directory where the refresh token file belongs makes that write fail.
	blocked := filepath.Join(s.BasePath(), keyRefreshToken)
	if err := os.Remove(blocked); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(blocked, "x"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := s.SetSession(Session{Token: "new", RefreshToken: "r1", UserID: "u1"}); err == nil {
		t.Fatalf("expected the refresh token write to fail")
	}

	raw, err := os.ReadFile(filepath.Join(s.BasePath(), keyToken))
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if tok, _ := s.Token(); tok != string(raw) {
		t.Fatalf("memory token %q, disk token %q", tok, raw)
	}
	if got, _ := s.Session(); got.UserID != "u0" {
		t.Fatalf("user changed without its write: %+v", got)
	}
}
