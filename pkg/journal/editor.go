// Package journal holds the per-date journal editor and the workspace that
// pairs it with the calendar.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
)

// State of the editor for the open date.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateEmpty
	StateLoaded
	StateDirty
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	}
	return "idle"
}

// ErrNoDate is returned when an operation needs an open date.
var ErrNoDate = errors.New("journal: no date open")

// Backend is the subset of the API client the journal needs.
type Backend interface {
	SaveJournal(ctx context.Context, date entry.Date, content string) (entry.JournalEntry, error)
	JournalDates(ctx context.Context) ([]entry.Date, error)
}

// Editor edits one date at a time. Saves are upserts keyed by date, and at
// most one save per date is in flight.
type Editor struct {
	backend Backend
	index   *calendar.Index
	log     zerolog.Logger
	group   singleflight.Group

	mu       sync.Mutex
	open     bool
	date     entry.Date
	state    State
	content  string
	remote   bool
	err      error
	saved    map[entry.Date]entry.JournalEntry
	inflight map[entry.Date]bool
}

// Option configures an Editor or Workspace.
type Option func(*options)

type options struct {
	log zerolog.Logger
	loc *time.Location
	now func() time.Time
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithLocation sets the zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop(), loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewEditor returns an idle editor. Successful saves are marked in index.
func NewEditor(backend Backend, index *calendar.Index, opts ...Option) *Editor {
	o := buildOptions(opts)
	if index == nil {
		index = calendar.NewIndex()
	}
	return &Editor{
		backend:  backend,
		index:    index,
		log:      o.log,
		saved:    make(map[entry.Date]entry.JournalEntry),
		inflight: make(map[entry.Date]bool),
	}
}

// Open switches to date. Unsaved edits for the current date are saved first;
// if that save fails the editor stays on the current date and the error is
// returned.
func (e *Editor) Open(ctx context.Context, date entry.Date) error {
	if err := e.Flush(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = true
	e.date = date
	e.state = StateLoading
	e.resolveLocked()
	e.log.Debug().Str("date", date.String()).Str("state", e.state.String()).Msg("open")
	return nil
}

// resolveLocked loads the content for e.date from what this editor knows.
// A date the server lists but this editor never saved has an unknown body.
func (e *Editor) resolveLocked() {
	e.err = nil
	e.remote = false
	if saved, ok := e.saved[e.date]; ok {
		e.content = saved.Content
		e.state = StateLoaded
		return
	}
	e.content = ""
	if e.index.Has(e.date) {
		e.remote = true
		e.state = StateLoaded
		return
	}
	e.state = StateEmpty
}

// Edit replaces the content of the open date.
func (e *Editor) Edit(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || text == e.content {
		return
	}
	e.content = text
	e.state = StateDirty
}

// Blur saves pending edits when the editor loses focus. It does nothing if a
// save for the open date is already running.
func (e *Editor) Blur(ctx context.Context) error {
	e.mu.Lock()
	busy := !e.open || e.inflight[e.date] || !e.unsavedLocked()
	e.mu.Unlock()
	if busy {
		return nil
	}
	return e.Save(ctx)
}

func (e *Editor) unsavedLocked() bool {
	return e.state == StateDirty || e.state == StateError
}

// Save writes the open date's content. Content with no visible text is not
// sent. A save that joined one already in flight is repeated when the content
// changed in the meantime.
func (e *Editor) Save(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		shared, err := e.saveOnce(ctx)
		if err != nil || !shared {
			return err
		}
		e.mu.Lock()
		again := e.state == StateDirty
		e.mu.Unlock()
		if !again {
			return nil
		}
	}
}

func (e *Editor) saveOnce(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return false, ErrNoDate
	}
	date, content := e.date, e.content
	body := entry.NormalizeContent(content)
	if body == "" {
		if !e.inflight[date] {
			e.state = StateEmpty
			e.err = nil
		}
		e.mu.Unlock()
		return false, nil
	}
	e.state = StateSaving
	e.mu.Unlock()

	v, err, shared := e.group.Do(date.String(), func() (interface{}, error) {
		e.mu.Lock()
		e.inflight[date] = true
		e.mu.Unlock()
		defer func() {
			e.mu.Lock()
			delete(e.inflight, date)
			e.mu.Unlock()
		}()
		saved, err := e.backend.SaveJournal(ctx, date, body)
		return flight{saved: saved, body: body}, err
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	current := e.open && e.date == date
	if err != nil {
		e.log.Warn().Err(err).Str("date", date.String()).Msg("save journal")
		if current && e.state == StateSaving {
			e.state = StateError
			e.err = err
		}
		return shared, err
	}

	f := v.(flight)
	saved := f.saved
	if saved.Date.IsZero() {
		saved.Date = date
	}
	if saved.Content == "" {
		saved.Content = f.body
	}
	e.saved[date] = saved
	e.index.Mark(date)
	if current && e.state == StateSaving {
		if entry.NormalizeContent(e.content) == f.body {
			e.state = StateLoaded
			e.err = nil
			e.remote = false
		} else {
			// Joined a save of older content.
			e.state = StateDirty
		}
	}
	return shared, nil
}

type flight struct {
	saved entry.JournalEntry
	body  string
}

// Flush saves pending edits and waits for the result.
func (e *Editor) Flush(ctx context.Context) error {
	e.mu.Lock()
	pending := e.open && (e.unsavedLocked() || e.inflight[e.date])
	e.mu.Unlock()
	if !pending {
		return nil
	}
	return e.Save(ctx)
}

// Discard drops unsaved edits for the open date, including content whose
// save failed.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || !e.unsavedLocked() {
		return
	}
	e.resolveLocked()
}

// markLoading flags the open date as loading while the date index refreshes.
func (e *Editor) markLoading() {
	e.mu.Lock()
	if e.open && !e.unsavedLocked() && e.state != StateSaving {
		e.state = StateLoading
	}
	e.mu.Unlock()
}

// reresolve recomputes the open date after the index changed, leaving
// unsaved or in-flight edits alone.
func (e *Editor) reresolve() {
	e.mu.Lock()
	if e.open && e.state == StateLoading {
		e.resolveLocked()
	}
	e.mu.Unlock()
}

// savedDates returns the dates this editor has saved.
func (e *Editor) savedDates() []entry.Date {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]entry.Date, 0, len(e.saved))
	for d := range e.saved {
		out = append(out, d)
	}
	return out
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Date returns the open date; ok is false before the first Open.
func (e *Editor) Date() (entry.Date, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.date, e.open
}

func (e *Editor) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// Remote reports that the open date has an entry on the server whose body
// this editor has not seen. Saving replaces it.
func (e *Editor) Remote() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remote
}

// Err is the last save error for the open date.
func (e *Editor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// SavedAt returns when the open date was last saved by this editor.
func (e *Editor) SavedAt() (entry.Timestamp, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	saved, ok := e.saved[e.date]
	if !ok || saved.SavedAt.IsZero() {
		return entry.Timestamp{}, false
	}
	return saved.SavedAt, true
}

// Entry returns the saved entry for date, if this editor saved one.
func (e *Editor) Entry(date entry.Date) (entry.JournalEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	saved, ok := e.saved[date]
	return saved, ok
}
