package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/store"
)

func TestSessionMessagesAcceptsBothShapes(t *testing.T) {
	bodies := map[string]string{
		"array": `[
			{"chat_id": 3, "role": "assistant", "content": "c", "created_at": "2025-01-01T10:03:00Z"},
			{"chat_id": 1, "role": "user", "content": "a", "created_at": "2025-01-01T10:01:00Z"},
			{"chat_id": 2, "role": "assistant", "content": "b", "created_at": "2025-01-01T10:02:00"}
		]`,
		"wrapped": `{"messages": [
			{"id": "3", "role": "assistant", "content": "c", "created_at": "2025-01-01T10:03:00Z"},
			{"id": "1", "role": "user", "content": "a", "created_at": "2025-01-01T10:01:00Z"},
			{"id": "2", "role": "assistant", "content": "b", "created_at": "2025-01-01T10:02:00Z"}
		]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/chat-sessions/s-1/messages", r.URL.Path)
				_, _ = io.WriteString(w, body)
			}, store.NewMemory())

			msgs, err := c.SessionMessages(context.Background(), "s-1")
			require.NoError(t, err)
			require.Len(t, msgs, 3)
			assert.Equal(t, []string{"1", "2", "3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
			assert.Equal(t, RoleUser, msgs[0].Role)
			assert.Equal(t, "s-1", msgs[0].SessionID)
		})
	}
}

func TestChatSessionsNewestFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sessions": [
			{"session_id": "old", "created_at": "2025-01-01T09:00:00Z", "notes": null},
			{"session_id": "new", "created_at": "2025-01-03T09:00:00Z", "notes": "n"}
		]}`)
	}, store.NewMemory())

	sessions, err := c.ChatSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	require.NotNil(t, sessions[0].Notes)
	assert.Nil(t, sessions[1].Notes)
}

func TestCreateChatSessionShapes(t *testing.T) {
	for name, body := range map[string]string{
		"bare":    `{"session_id": "s9", "created_at": "2025-01-01T09:00:00Z"}`,
		"wrapped": `{"session": {"id": "s9", "created_at": "2025-01-01T09:00:00Z"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				_, _ = io.WriteString(w, body)
			}, store.NewMemory())
			s, err := c.CreateChatSession(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "s9", s.ID)
		})
	}
}

func TestSendSessionMessageNormalizesExchange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["message"])
		_, _ = io.WriteString(w, `{
			"userMessage": {"chat_id": 10, "role": "user", "content": "hello", "created_at": "2025-01-01T10:00:00Z"},
			"aiMessage": {"chat_id": 11, "role": "assistant", "content": "hi there", "created_at": "2025-01-01T10:00:01Z"}
		}`)
	}, store.NewMemory())

	ex, err := c.SendSessionMessage(context.Background(), "s1", "hello")
	require.NoError(t, err)
	require.NotNil(t, ex.UserMessage)
	require.NotNil(t, ex.AIMessage)
	assert.Equal(t, "10", ex.UserMessage.ID)
	assert.Equal(t, "hi there", ex.AIMessage.Content)
	assert.Equal(t, "s1", ex.AIMessage.SessionID)
}

func TestSaveJournalSendsDateAndContent(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id": "j1", "content": "Hello", "journal_date": "2025-02-03", "updated_at": "2025-02-03T08:00:00Z"}`)
	}, store.NewMemory())

	saved, err := c.SaveJournal(context.Background(), entry.NewDate(2025, time.February, 3), "Hello")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"content": "Hello", "journal_date": "2025-02-03"}, got)
	assert.Equal(t, "j1", saved.ID)
	assert.False(t, saved.SavedAt.IsZero())
}

func TestJournalDatesDeduplicatesAndTruncates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"dates": ["2025-01-01", "2025-01-01T12:00:00Z", "garbage", "2025-01-05"]}`)
	}, store.NewMemory())

	dates, err := c.JournalDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entry.Date{entry.NewDate(2025, 1, 1), entry.NewDate(2025, 1, 5)}, dates)
}

func TestJournalSummaryNotComputed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-01-07", r.URL.Query().Get("end_date"))
		_, _ = io.WriteString(w, `[]`)
	}, store.NewMemory())

	_, err := c.JournalSummary(context.Background(), entry.NewDate(2025, 1, 1), entry.NewDate(2025, 1, 7))
	assert.True(t, IsNotFound(err))
}

func TestSaveGoalsDefaultsBlankGoals(t *testing.T) {
	var got GoalsJournal
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"message": "Data saved successfully!"}`)
	}, store.NewMemory())

	msg, err := c.SaveGoalsJournal(context.Background(), GoalsJournal{Goals: Goals{Weekly: "run"}, Journal: "first"})
	require.NoError(t, err)
	assert.Equal(t, "Data saved successfully!", msg)
	assert.Equal(t, Goals{Yearly: "Not specified", Monthly: "Not specified", Weekly: "run"}, got.Goals)
}

func TestSignupFallsBackToTokenClaims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:            "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"},
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "access_token": token})
	}, store.NewMemory())

	resp, err := c.Signup(context.Background(), Credentials{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-7", resp.User.ID)
	assert.Equal(t, "a@example.com", resp.User.Email)
}

func TestTokenClaimsExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(past)},
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	claims, err := TokenClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.SubjectID())
	assert.True(t, claims.Expired(time.Now()))

	_, err = TokenClaims("not-a-jwt")
	assert.Error(t, err)
}
