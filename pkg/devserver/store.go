package devserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

var (
	errNotFound  = errors.New("devserver: not found")
	errDuplicate = errors.New("devserver: duplicate")
)

// Store keeps the development backend's state in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

// OpenStore opens or creates the database at path. An empty path keeps
// everything in memory.
func OpenStore(path string, now func() time.Time) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == "" {
		// Every new connection to :memory: is a new, empty database.
		db.SetMaxOpenConns(1)
	}
	if now == nil {
		now = time.Now
	}
	s := &Store{
		db:      db,
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		expires_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journals (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		journal_date TEXT NOT NULL,
		content      TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		UNIQUE (user_id, journal_date)
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		created_at TEXT NOT NULL,
		notes      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_user ON chat_sessions(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		session_id TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, created_at);

	CREATE TABLE IF NOT EXISTS chat_summaries (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		session_id   TEXT NOT NULL UNIQUE,
		summary_text TEXT NOT NULL,
		inserted_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal_summaries (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		start_date   TEXT NOT NULL,
		end_date     TEXT NOT NULL,
		summary_text TEXT NOT NULL,
		inserted_at  TEXT NOT NULL,
		UNIQUE (user_id, start_date, end_date)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id      TEXT PRIMARY KEY REFERENCES users(id),
		profile_data TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS insights (
		user_id    TEXT PRIMARY KEY REFERENCES users(id),
		insights   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		user_id    TEXT PRIMARY KEY REFERENCES users(id),
		yearly     TEXT NOT NULL,
		monthly    TEXT NOT NULL,
		weekly     TEXT NOT NULL,
		journal    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

type user struct {
	ID           string
	Email        string
	PasswordHash string
}

func (s *Store) CreateUser(ctx context.Context, email, hash string) (user, error) {
	u := user{ID: s.newID(), Email: email, PasswordHash: hash}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return user{}, err
	}
	if exists > 0 {
		return user{}, errDuplicate
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, s.stamp())
	if err != nil {
		return user{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (user, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = ?`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (user, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (user, error) {
	var u user
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user{}, errNotFound
		}
		return user{}, err
	}
	return u, nil
}

func (s *Store) SaveRefreshToken(ctx context.Context, token, userID string, expires time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expires.UTC().Format(time.RFC3339Nano))
	return err
}

// ConsumeRefreshToken deletes token and returns its user. Refresh tokens are
// single use.
func (s *Store) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	var userID, expires string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM refresh_tokens WHERE token = ?`, token).Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errNotFound
	}
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token); err != nil {
		return "", err
	}
	if t, err := time.Parse(time.RFC3339Nano, expires); err == nil && !s.now().Before(t) {
		return "", errNotFound
	}
	return userID, nil
}

type journalRow struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	JournalDate string `json:"journal_date"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// UpsertJournal stores content as the user's entry for date, replacing any
// existing one.
func (s *Store) UpsertJournal(ctx context.Context, userID, date, content string) (journalRow, error) {
	now := s.stamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journals (id, user_id, journal_date, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, journal_date) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at`,
		s.newID(), userID, date, content, now, now)
	if err != nil {
		return journalRow{}, fmt.Errorf("upsert journal: %w", err)
	}
	var j journalRow
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, journal_date, content, created_at, updated_at
		FROM journals WHERE user_id = ? AND journal_date = ?`, userID, date).
		Scan(&j.ID, &j.UserID, &j.JournalDate, &j.Content, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (s *Store) JournalDates(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT journal_date FROM journals WHERE user_id = ? ORDER BY journal_date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// JournalsBetween returns the user's entries in [start, end], oldest first.
func (s *Store) JournalsBetween(ctx context.Context, userID, start, end string) ([]journalRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, journal_date, content, created_at, updated_at
		FROM journals WHERE user_id = ? AND journal_date BETWEEN ? AND ?
		ORDER BY journal_date`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []journalRow
	for rows.Next() {
		var j journalRow
		if err := rows.Scan(&j.ID, &j.UserID, &j.JournalDate, &j.Content, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) CountJournals(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journals WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

type sessionRow struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	CreatedAt string  `json:"created_at"`
	Notes     *string `json:"notes"`
}

func (s *Store) CreateSession(ctx context.Context, userID string) (sessionRow, error) {
	row := sessionRow{ID: s.newID(), UserID: userID, CreatedAt: s.stamp()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, created_at) VALUES (?, ?, ?)`,
		row.ID, row.UserID, row.CreatedAt)
	return row, err
}

func (s *Store) Sessions(ctx context.Context, userID string) ([]sessionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, created_at, notes FROM chat_sessions
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []sessionRow{}
	for rows.Next() {
		var r sessionRow
		var notes sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &notes); err != nil {
			return nil, err
		}
		if notes.Valid {
			r.Notes = &notes.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SessionOwned(ctx context.Context, userID, sessionID string) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_sessions WHERE id = ? AND user_id = ?`, sessionID, userID).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

type messageRow struct {
	ChatID    string `json:"chat_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (s *Store) AddMessage(ctx context.Context, userID, sessionID, role, content string) (messageRow, error) {
	m := messageRow{ChatID: s.newID(), SessionID: sessionID, Role: role, Content: content, CreatedAt: s.stamp()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ChatID, userID, m.SessionID, m.Role, m.Content, m.CreatedAt)
	return m, err
}

// Messages returns a session's messages oldest first. The free-standing chat
// uses the empty session id.
func (s *Store) Messages(ctx context.Context, userID, sessionID string) ([]messageRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at FROM chat_messages
		WHERE user_id = ? AND session_id = ? ORDER BY created_at, id`, userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []messageRow{}
	for rows.Next() {
		var m messageRow
		if err := rows.Scan(&m.ChatID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type summaryRow struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	SummaryText string `json:"summary_text"`
	InsertedAt  string `json:"inserted_at"`
}

func (s *Store) ChatSummary(ctx context.Context, userID, sessionID string) (summaryRow, error) {
	var r summaryRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_id, summary_text, inserted_at FROM chat_summaries
		WHERE user_id = ? AND session_id = ?`, userID, sessionID).
		Scan(&r.ID, &r.UserID, &r.SessionID, &r.SummaryText, &r.InsertedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return summaryRow{}, errNotFound
	}
	return r, err
}

func (s *Store) SaveChatSummary(ctx context.Context, userID, sessionID, text string) (summaryRow, error) {
	r := summaryRow{ID: s.newID(), UserID: userID, SessionID: sessionID, SummaryText: text, InsertedAt: s.stamp()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_summaries (id, user_id, session_id, summary_text, inserted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			summary_text = excluded.summary_text,
			inserted_at = excluded.inserted_at`,
		r.ID, r.UserID, r.SessionID, r.SummaryText, r.InsertedAt)
	if err != nil {
		return summaryRow{}, err
	}
	return s.ChatSummary(ctx, userID, sessionID)
}

func (s *Store) JournalSummary(ctx context.Context, userID, start, end string) (summaryRow, error) {
	var r summaryRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, start_date, end_date, summary_text, inserted_at FROM journal_summaries
		WHERE user_id = ? AND start_date = ? AND end_date = ?`, userID, start, end).
		Scan(&r.ID, &r.UserID, &r.StartDate, &r.EndDate, &r.SummaryText, &r.InsertedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return summaryRow{}, errNotFound
	}
	return r, err
}

func (s *Store) SaveJournalSummary(ctx context.Context, userID, start, end, text string) (summaryRow, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_summaries (id, user_id, start_date, end_date, summary_text, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, start_date, end_date) DO UPDATE SET
			summary_text = excluded.summary_text,
			inserted_at = excluded.inserted_at`,
		s.newID(), userID, start, end, text, s.stamp())
	if err != nil {
		return summaryRow{}, err
	}
	return s.JournalSummary(ctx, userID, start, end)
}

type profileRow struct {
	UserID      string         `json:"user_id"`
	ProfileData map[string]any `json:"profile_data"`
	UpdatedAt   string         `json:"updated_at"`
}

func (s *Store) Profile(ctx context.Context, userID string) (profileRow, error) {
	var raw string
	r := profileRow{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_data, updated_at FROM profiles WHERE user_id = ?`, userID).Scan(&raw, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return profileRow{}, errNotFound
	}
	if err != nil {
		return profileRow{}, err
	}
	if err := json.Unmarshal([]byte(raw), &r.ProfileData); err != nil {
		return profileRow{}, fmt.Errorf("decode profile: %w", err)
	}
	return r, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID string, data map[string]any) (profileRow, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return profileRow{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, profile_data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			profile_data = excluded.profile_data,
			updated_at = excluded.updated_at`,
		userID, string(b), s.stamp())
	if err != nil {
		return profileRow{}, err
	}
	return s.Profile(ctx, userID)
}

func (s *Store) Insights(ctx context.Context, userID string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT insights FROM insights WHERE user_id = ?`, userID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errNotFound
	}
	return text, err
}

func (s *Store) SaveInsights(ctx context.Context, userID, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insights (user_id, insights, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			insights = excluded.insights,
			updated_at = excluded.updated_at`,
		userID, text, s.stamp())
	return err
}

type goalsRow struct {
	Yearly  string `json:"yearly"`
	Monthly string `json:"monthly"`
	Weekly  string `json:"weekly"`
	Journal string `json:"journal"`
}

func (s *Store) SaveGoals(ctx context.Context, userID string, g goalsRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, yearly, monthly, weekly, journal, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			yearly = excluded.yearly,
			monthly = excluded.monthly,
			weekly = excluded.weekly,
			journal = excluded.journal,
			updated_at = excluded.updated_at`,
		userID, g.Yearly, g.Monthly, g.Weekly, g.Journal, s.stamp())
	return err
}

func (s *Store) Goals(ctx context.Context, userID string) (goalsRow, error) {
	var g goalsRow
	err := s.db.QueryRowContext(ctx,
		`SELECT yearly, monthly, weekly, journal FROM goals WHERE user_id = ?`, userID).
		Scan(&g.Yearly, &g.Monthly, &g.Weekly, &g.Journal)
	if errors.Is(err, sql.ErrNoRows) {
		return goalsRow{}, errNotFound
	}
	return g, err
}
