package store

import (
	"sync"
)

// Session is the credential held for the signed-in user.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email,omitempty"`
}

// Sessions is the persistence contract for client-side session state. The
// auth controller is the only writer; the API client only reads the token and
// clears it on an authentication failure.
type Sessions interface {
	// Token returns the current bearer token, if any.
	Token() (string, bool)
	// SetToken replaces the stored bearer token.
	SetToken(token string) error
	// ClearToken removes the token and everything tied to the session.
	ClearToken() error
	// ClearTokenIf clears the session only if the stored token is still
	// token. It reports whether anything was cleared.
	ClearTokenIf(token string) (bool, error)

	Session() (Session, bool)
	SetSession(s Session) error

	WelcomeSeen() bool
	SetWelcomeSeen(seen bool) error

	LastChatSession() (string, bool)
	SetLastChatSession(id string) error
}

// MemoryStore keeps session state in process memory only.
type MemoryStore struct {
	mu          sync.RWMutex
	session     Session
	welcomeSeen bool
	lastChat    string
}

var _ Sessions = (*MemoryStore)(nil)

// NewMemory returns an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token, m.session.Token != ""
}

func (m *MemoryStore) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Token = token
	return nil
}

func (m *MemoryStore) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

func (m *MemoryStore) ClearTokenIf(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Token == "" || m.session.Token != token {
		return false, nil
	}
	m.session = Session{}
	return true, nil
}

func (m *MemoryStore) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.session.Token != ""
}

func (m *MemoryStore) SetSession(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *MemoryStore) WelcomeSeen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.welcomeSeen
}

func (m *MemoryStore) SetWelcomeSeen(seen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomeSeen = seen
	return nil
}

func (m *MemoryStore) LastChatSession() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastChat, m.lastChat != ""
}

func (m *MemoryStore) SetLastChatSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastChat = id
	return nil
}
