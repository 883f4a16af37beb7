package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type ctxKey struct{}

type principal struct {
	ID    string
	Email string
}

func userFrom(ctx context.Context) principal {
	p, _ := ctx.Value(ctxKey{}).(principal)
	return p
}

// authenticate rejects requests without a valid bearer token.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" {
			s.fail(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := s.tokens.validate(token)
		if err != nil {
			s.reqLog(r).Debug().Err(err).Msg("rejected token")
			s.fail(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, principal{ID: claims.UserID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authJSON struct {
	Message      string   `json:"message,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	User         userJSON `json:"user"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !s.decode(w, r, &in) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		s.fail(w, r, http.StatusBadRequest, "Unable to validate email address: invalid format")
		return
	}
	if len(in.Password) < minPassword {
		s.fail(w, r, http.StatusBadRequest, "Password should be at least 6 characters.")
		return
	}
	hash, err := s.tokens.hash(in.Password)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), email, hash)
	if errors.Is(err, errDuplicate) {
		s.fail(w, r, http.StatusBadRequest, "User already registered")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.reqLog(r).Info().Str("user_id", u.ID).Msg("user signed up")

	out := authJSON{Message: "Signup successful", UserID: u.ID, Email: u.Email, User: userJSON{u.ID, u.Email}}
	if s.opts.ConfirmEmail {
		out.Message = "Signup successful. Check your email to confirm your account."
		s.respond(w, r, http.StatusOK, out)
		return
	}
	pair, err := s.tokens.issue(r.Context(), u)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	out.AccessToken, out.RefreshToken = pair.Access, pair.Refresh
	s.respond(w, r, http.StatusOK, out)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !s.decode(w, r, &in) {
		return
	}
	u, err := s.store.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil && !errors.Is(err, errNotFound) {
		s.internal(w, r, err)
		return
	}
	if err != nil || !s.tokens.check(u.PasswordHash, in.Password) {
		s.fail(w, r, http.StatusBadRequest, "Invalid login credentials")
		return
	}
	pair, err := s.tokens.issue(r.Context(), u)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, authJSON{
		Message:      "Login successful",
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		UserID:       u.ID,
		Email:        u.Email,
		User:         userJSON{u.ID, u.Email},
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	u, pair, err := s.tokens.rotate(r.Context(), in.RefreshToken)
	if errors.Is(err, errInvalidToken) {
		s.fail(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, authJSON{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		UserID:       u.ID,
		Email:        u.Email,
		User:         userJSON{u.ID, u.Email},
	})
}

func (s *Server) protected(w http.ResponseWriter, r *http.Request) {
	p := userFrom(r.Context())
	s.respond(w, r, http.StatusOK, map[string]interface{}{
		"message": "You are authenticated",
		"user":    userJSON{p.ID, p.Email},
	})
}

func parseDay(v string) (string, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}

func (s *Server) saveJournal(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content     string `json:"content"`
		JournalDate string `json:"journal_date"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	date, ok := parseDay(in.JournalDate)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "journal_date must be YYYY-MM-DD")
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		s.fail(w, r, http.StatusBadRequest, "Journal content cannot be empty")
		return
	}
	row, err := s.store.UpsertJournal(r.Context(), userFrom(r.Context()).ID, date, in.Content)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) journalDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.store.JournalDates(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string][]string{"dates": dates})
}

func (s *Server) rangeParams(w http.ResponseWriter, r *http.Request, start, end string) (string, string, bool) {
	from, ok1 := parseDay(start)
	to, ok2 := parseDay(end)
	if !ok1 || !ok2 {
		s.fail(w, r, http.StatusBadRequest, "start_date and end_date must be YYYY-MM-DD")
		return "", "", false
	}
	if to < from {
		s.fail(w, r, http.StatusBadRequest, "end_date is before start_date")
		return "", "", false
	}
	return from, to, true
}

func (s *Server) getJournalSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, ok := s.rangeParams(w, r, q.Get("start_date"), q.Get("end_date"))
	if !ok {
		return
	}
	row, err := s.store.JournalSummary(r.Context(), userFrom(r.Context()).ID, start, end)
	if errors.Is(err, errNotFound) {
		// A summary not computed yet is an empty list, not a 404.
		s.respond(w, r, http.StatusOK, []summaryRow{})
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) createJournalSummary(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	start, end, ok := s.rangeParams(w, r, in.StartDate, in.EndDate)
	if !ok {
		return
	}
	userID := userFrom(r.Context()).ID
	rows, err := s.store.JournalsBetween(r.Context(), userID, start, end)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if len(rows) == 0 {
		s.fail(w, r, http.StatusNotFound, "No journals found in this date range")
		return
	}
	row, err := s.store.SaveJournalSummary(r.Context(), userID, start, end, summarizeJournals(rows))
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Sessions(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, rows)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.CreateSession(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]sessionRow{"session": row})
}

// ownedSession resolves {id} and answers 404 for sessions of other users.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, id string) bool {
	err := s.store.SessionOwned(r.Context(), userFrom(r.Context()).ID, id)
	if errors.Is(err, errNotFound) {
		s.fail(w, r, http.StatusNotFound, "Chat session not found")
		return false
	}
	if err != nil {
		s.internal(w, r, err)
		return false
	}
	return true
}

func (s *Server) sessionMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ownedSession(w, r, id) {
		return
	}
	msgs, err := s.store.Messages(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, msgs)
}

func (s *Server) sendSessionMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in struct {
		Message string `json:"message"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		s.fail(w, r, http.StatusBadRequest, "Message cannot be empty")
		return
	}
	if !s.ownedSession(w, r, id) {
		return
	}
	userID := userFrom(r.Context()).ID
	um, err := s.store.AddMessage(r.Context(), userID, id, "user", in.Message)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	am, err := s.store.AddMessage(r.Context(), userID, id, "assistant", replyTo(in.Message))
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]messageRow{"userMessage": um, "aiMessage": am})
}

func (s *Server) getChatSummary(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		s.fail(w, r, http.StatusBadRequest, "session_id is required")
		return
	}
	row, err := s.store.ChatSummary(r.Context(), userFrom(r.Context()).ID, id)
	if errors.Is(err, errNotFound) {
		s.respond(w, r, http.StatusOK, []summaryRow{})
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) createChatSummary(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID string `json:"session_id"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if !s.ownedSession(w, r, in.SessionID) {
		return
	}
	userID := userFrom(r.Context()).ID
	msgs, err := s.store.Messages(r.Context(), userID, in.SessionID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	text := summarizeChat(msgs)
	if text == "" {
		s.fail(w, r, http.StatusBadRequest, "Nothing to summarize in this session yet")
		return
	}
	row, err := s.store.SaveChatSummary(r.Context(), userID, in.SessionID, text)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) saveGoals(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Goals   goalsRow `json:"goals"`
		Journal string   `json:"journal"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	userID := userFrom(r.Context()).ID
	in.Goals.Journal = in.Journal
	if err := s.store.SaveGoals(r.Context(), userID, in.Goals); err != nil {
		s.internal(w, r, err)
		return
	}
	if strings.TrimSpace(in.Journal) != "" {
		today := s.opts.Now().UTC().Format(dateLayout)
		if _, err := s.store.UpsertJournal(r.Context(), userID, today, in.Journal); err != nil {
			s.internal(w, r, err)
			return
		}
	}
	s.respond(w, r, http.StatusOK, map[string]string{"message": "Goals and journal saved successfully"})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.Profile(r.Context(), userFrom(r.Context()).ID)
	if errors.Is(err, errNotFound) {
		s.fail(w, r, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProfileData map[string]interface{} `json:"profile_data"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if in.ProfileData == nil {
		s.fail(w, r, http.StatusBadRequest, "profile_data is required")
		return
	}
	row, err := s.store.SaveProfile(r.Context(), userFrom(r.Context()).ID, in.ProfileData)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, row)
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	text, err := s.store.Insights(r.Context(), userFrom(r.Context()).ID)
	if err != nil && !errors.Is(err, errNotFound) {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"insights": text})
}

func (s *Server) generateInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx).ID
	rows, err := s.store.JournalsBetween(ctx, userID, "0000-01-01", "9999-12-31")
	if err != nil {
		s.internal(w, r, err)
		return
	}
	goals, err := s.store.Goals(ctx, userID)
	if err != nil && !errors.Is(err, errNotFound) {
		s.internal(w, r, err)
		return
	}
	text := insightsFor(rows, goals)
	if err := s.store.SaveInsights(ctx, userID, text); err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"insights": text})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string  `json:"message"`
		Context *string `json:"context"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		s.fail(w, r, http.StatusBadRequest, "Message cannot be empty")
		return
	}
	userID := userFrom(r.Context()).ID
	if _, err := s.store.AddMessage(r.Context(), userID, "", "user", in.Message); err != nil {
		s.internal(w, r, err)
		return
	}
	reply := replyTo(in.Message)
	if _, err := s.store.AddMessage(r.Context(), userID, "", "assistant", reply); err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.Messages(r.Context(), userFrom(r.Context()).ID, "")
	if err != nil {
		s.internal(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, msgs)
}
