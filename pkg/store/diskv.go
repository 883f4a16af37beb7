package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// Well-known keys inside the state directory.
const (
	keyToken        = "token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
	keyWelcomeSeen  = "welcome_seen"
	keyLastChat     = "last_chat_session"
)

// DiskStore is a Sessions implementation backed by diskv. Values are mirrored
// in memory; every mutation writes through to disk while holding the lock so
// the two copies only differ while a write is in flight.
type DiskStore struct {
	mu       sync.RWMutex
	d        *diskv.Diskv
	basePath string

	session     Session
	welcomeSeen bool
	lastChat    string
}

var _ Sessions = (*DiskStore)(nil)

type storedUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Load opens the session store under the configured base path.
func Load(cfg Config) (*DiskStore, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	if cfg.BasePath() == "" {
		return nil, errors.New("store: base path is empty")
	}

	basePath := filepath.Join(cfg.BasePath(), "state")
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}

	s := &DiskStore{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      filepath.Join(cfg.BasePath(), "tmp"),
			Transform:    func(string) []string { return []string{} },
			// No cache: another process may rewrite these files.
			CacheSizeMax: 0,
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
		basePath: basePath,
	}
	if err := s.hydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// BasePath is the directory holding the state files.
func (s *DiskStore) BasePath() string {
	return s.basePath
}

func (s *DiskStore) hydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}
	s.session.Token = s.readString(keyToken)
	s.session.RefreshToken = s.readString(keyRefreshToken)
	if raw, err := s.d.Read(keyUser); err == nil {
		var u storedUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return fmt.Errorf("store: decode %s: %w", keyUser, err)
		}
		s.session.UserID = u.UserID
		s.session.Email = u.Email
	}
	s.welcomeSeen = s.readString(keyWelcomeSeen) == "true"
	s.lastChat = s.readString(keyLastChat)
	return nil
}

func (s *DiskStore) readString(key string) string {
	if !s.d.Has(key) {
		return ""
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *DiskStore) write(key, value string) error {
	if value == "" {
		return s.erase(key)
	}
	if err := s.d.WriteString(key, value); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) erase(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: erase %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token, s.session.Token != ""
}

func (s *DiskStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(keyToken, token); err != nil {
		return err
	}
	s.session.Token = token
	return nil
}

func (s *DiskStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *DiskStore) ClearTokenIf(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Token == "" || s.session.Token != token {
		return false, nil
	}
	return true, s.clearLocked()
}

func (s *DiskStore) clearLocked() error {
	// The mirror is cleared even when disk fails so the running process
	// stops sending the credential.
	s.session = Session{}
	var errs []error
	for _, key := range []string{keyToken, keyRefreshToken, keyUser} {
		if err := s.erase(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *DiskStore) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.session.Token != ""
}

func (s *DiskStore) SetSession(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := json.Marshal(storedUser{UserID: session.UserID, Email: session.Email})
	if err != nil {
		return fmt.Errorf("store: encode user: %w", err)
	}
	// Each field is mirrored as soon as its file lands, so a failed later
	// write leaves memory matching disk.
	if err := s.write(keyToken, session.Token); err != nil {
		return err
	}
	s.session.Token = session.Token
	if err := s.write(keyRefreshToken, session.RefreshToken); err != nil {
		return err
	}
	s.session.RefreshToken = session.RefreshToken
	if err := s.write(keyUser, string(user)); err != nil {
		return err
	}
	s.session.UserID, s.session.Email = session.UserID, session.Email
	return nil
}

func (s *DiskStore) WelcomeSeen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.welcomeSeen
}

func (s *DiskStore) SetWelcomeSeen(seen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := ""
	if seen {
		value = "true"
	}
	if err := s.write(keyWelcomeSeen, value); err != nil {
		return err
	}
	s.welcomeSeen = seen
	return nil
}

func (s *DiskStore) LastChatSession() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastChat, s.lastChat != ""
}

func (s *DiskStore) SetLastChatSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(keyLastChat, id); err != nil {
		return err
	}
	s.lastChat = id
	return nil
}

// Reload re-reads state from disk, picking up changes made by another
// process. It is called when the watcher reports a change.
func (s *DiskStore) Reload() error {
	return s.hydrate()
}
