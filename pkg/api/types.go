package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tableflip.dev/tranquil/pkg/entry"
)

// Credentials are sent to /signup and /login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is the normalized result of /signup, /login and /refresh.
type AuthResponse struct {
	Message      string
	AccessToken  string
	RefreshToken string
	User         User
}

// rawUser covers the user shapes the API returns: {id}, {sub} or {user_id}.
type rawUser struct {
	ID     string `json:"id"`
	Sub    string `json:"sub"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (u rawUser) normalize() User {
	id := u.ID
	if id == "" {
		id = u.UserID
	}
	if id == "" {
		id = u.Sub
	}
	return User{ID: id, Email: u.Email}
}

type rawAuth struct {
	Message      string   `json:"message"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	User         *rawUser `json:"user"`
	Session      *struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"session"`
}

func (r rawAuth) normalize() AuthResponse {
	out := AuthResponse{
		Message:      r.Message,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User:         User{ID: r.UserID, Email: r.Email},
	}
	if r.Session != nil {
		if out.AccessToken == "" {
			out.AccessToken = r.Session.AccessToken
		}
		if out.RefreshToken == "" {
			out.RefreshToken = r.Session.RefreshToken
		}
	}
	if r.User != nil {
		u := r.User.normalize()
		if out.User.ID == "" {
			out.User.ID = u.ID
		}
		if out.User.Email == "" {
			out.User.Email = u.Email
		}
	}
	// Fall back to the token itself for identity.
	if out.AccessToken != "" && (out.User.ID == "" || out.User.Email == "") {
		if claims, err := TokenClaims(out.AccessToken); err == nil {
			if out.User.ID == "" {
				out.User.ID = claims.SubjectID()
			}
			if out.User.Email == "" {
				out.User.Email = claims.Email
			}
		}
	}
	return out
}

// Goals are the onboarding goals. Blank goals are sent as "Not specified".
type Goals struct {
	Yearly  string `json:"yearly"`
	Monthly string `json:"monthly"`
	Weekly  string `json:"weekly"`
}

type GoalsJournal struct {
	Goals   Goals  `json:"goals"`
	Journal string `json:"journal"`
}

type saveJournalRequest struct {
	Content     string     `json:"content"`
	JournalDate entry.Date `json:"journal_date"`
}

type rawJournal struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Content     *string         `json:"content"`
	JournalDate string          `json:"journal_date"`
	CreatedAt   entry.Timestamp `json:"created_at"`
	UpdatedAt   entry.Timestamp `json:"updated_at"`
	Data        []rawJournal    `json:"data"`
}

// JournalSummary is a server-computed summary of the entries in a range.
type JournalSummary struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	StartDate   entry.Date      `json:"start_date"`
	EndDate     entry.Date      `json:"end_date"`
	SummaryText string          `json:"summary_text"`
	InsertedAt  entry.Timestamp `json:"inserted_at"`
}

type summaryRange struct {
	StartDate entry.Date `json:"start_date"`
	EndDate   entry.Date `json:"end_date"`
}

// Role is who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatSession struct {
	ID        string          `json:"id"`
	CreatedAt entry.Timestamp `json:"created_at"`
	Notes     *string         `json:"notes"`
}

type rawSession struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	CreatedAt entry.Timestamp `json:"created_at"`
	Notes     *string         `json:"notes"`
}

func (r rawSession) normalize() ChatSession {
	id := r.SessionID
	if id == "" {
		id = r.ID
	}
	return ChatSession{ID: id, CreatedAt: r.CreatedAt, Notes: r.Notes}
}

type ChatMessage struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	CreatedAt entry.Timestamp `json:"created_at"`
}

type rawMessage struct {
	ID        json.RawMessage `json:"id"`
	ChatID    json.RawMessage `json:"chat_id"`
	SessionID string          `json:"session_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Message   string          `json:"message"`
	CreatedAt entry.Timestamp `json:"created_at"`
}

func (r rawMessage) normalize() ChatMessage {
	id := rawID(r.ChatID)
	if id == "" {
		id = rawID(r.ID)
	}
	content := r.Content
	if content == "" {
		content = r.Message
	}
	role := Role(strings.ToLower(r.Role))
	if role != RoleAssistant {
		role = RoleUser
	}
	return ChatMessage{ID: id, SessionID: r.SessionID, Role: role, Content: content, CreatedAt: r.CreatedAt}
}

// rawID accepts ids sent as strings or numbers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// decodeMessages accepts either a bare array or {messages:[...]}.
func decodeMessages(body json.RawMessage) ([]ChatMessage, error) {
	var list []rawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		var wrapped struct {
			Messages []rawMessage `json:"messages"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, fmt.Errorf("api: decode messages: %w", err)
		}
		list = wrapped.Messages
	}
	out := make([]ChatMessage, 0, len(list))
	for _, m := range list {
		out = append(out, m.normalize())
	}
	SortMessages(out)
	return out, nil
}

// SortMessages orders messages by creation time, oldest first. Equal times
// keep their relative order.
func SortMessages(msgs []ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt.Time)
	})
}

// Exchange is the result of sending a message to a session: the stored user
// message and the assistant's reply. Either may be missing.
type Exchange struct {
	UserMessage *ChatMessage
	AIMessage   *ChatMessage
}

type rawExchange struct {
	UserMessage  *rawMessage `json:"userMessage"`
	AIMessage    *rawMessage `json:"aiMessage"`
	UserMessage2 *rawMessage `json:"user_message"`
	AIMessage2   *rawMessage `json:"ai_message"`
	Response     string      `json:"response"`
}

func (r rawExchange) normalize(sessionID string) Exchange {
	var out Exchange
	user, ai := r.UserMessage, r.AIMessage
	if user == nil {
		user = r.UserMessage2
	}
	if ai == nil {
		ai = r.AIMessage2
	}
	if user != nil {
		m := user.normalize()
		m.Role = RoleUser
		out.UserMessage = &m
	}
	if ai != nil {
		m := ai.normalize()
		m.Role = RoleAssistant
		out.AIMessage = &m
	} else if r.Response != "" {
		out.AIMessage = &ChatMessage{Role: RoleAssistant, Content: r.Response, CreatedAt: entry.Now()}
	}
	for _, m := range []*ChatMessage{out.UserMessage, out.AIMessage} {
		if m != nil && m.SessionID == "" {
			m.SessionID = sessionID
		}
	}
	return out
}

// ChatSummary is a server-computed summary of one chat session.
type ChatSummary struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	SessionID   string          `json:"session_id"`
	SummaryText string          `json:"summary_text"`
	InsertedAt  entry.Timestamp `json:"inserted_at"`
}

// Profile is the server's assessment of the user. ProfileData is opaque.
type Profile struct {
	UserID      string          `json:"user_id"`
	ProfileData map[string]any  `json:"profile_data"`
	UpdatedAt   entry.Timestamp `json:"updated_at"`
}
