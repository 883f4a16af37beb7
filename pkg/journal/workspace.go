package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/calendar"
	"tableflip.dev/tranquil/pkg/entry"
)

// Workspace is the journal screen: a visible month, the date index and the
// editor for the selected date.
type Workspace struct {
	backend Backend
	index   *calendar.Index
	editor  *Editor
	log     zerolog.Logger
	loc     *time.Location
	now     func() time.Time

	mu       sync.Mutex
	month    calendar.Month
	selected entry.Date
}

// NewWorkspace returns a workspace showing the current month with today
// selected. Nothing is opened until Load or Select.
func NewWorkspace(backend Backend, opts ...Option) *Workspace {
	o := buildOptions(opts)
	idx := calendar.NewIndex()
	w := &Workspace{
		backend: backend,
		index:   idx,
		editor:  NewEditor(backend, idx, opts...),
		log:     o.log,
		loc:     o.loc,
		now:     o.now,
	}
	w.selected = w.Today()
	w.month = calendar.MonthOf(w.selected)
	return w
}

// Load rebuilds the date index from the server and opens the selected date.
// Dates saved locally during the fetch stay marked.
func (w *Workspace) Load(ctx context.Context) error {
	w.editor.markLoading()
	dates, err := w.backend.JournalDates(ctx)
	if err != nil {
		w.editor.reresolve()
		return fmt.Errorf("journal: load dates: %w", err)
	}
	w.index.Replace(dates)
	for _, d := range w.editor.savedDates() {
		w.index.Mark(d)
	}
	w.log.Debug().Int("dates", len(dates)).Msg("journal dates loaded")

	if _, open := w.editor.Date(); open {
		w.editor.reresolve()
		return nil
	}
	return w.Select(ctx, w.Selected())
}

// Select opens date, saving the previous date first, and moves the visible
// month to contain it.
func (w *Workspace) Select(ctx context.Context, date entry.Date) error {
	if err := w.editor.Open(ctx, date); err != nil {
		return err
	}
	w.mu.Lock()
	w.selected = date
	w.month = calendar.MonthOf(date)
	w.mu.Unlock()
	return nil
}

// Move selects the date days away from the current selection.
func (w *Workspace) Move(ctx context.Context, days int) error {
	return w.Select(ctx, w.Selected().AddDays(days))
}

// PrevMonth shows the previous month after saving pending edits.
func (w *Workspace) PrevMonth(ctx context.Context) error {
	return w.shiftMonth(ctx, calendar.Month.Prev)
}

// NextMonth shows the next month after saving pending edits.
func (w *Workspace) NextMonth(ctx context.Context) error {
	return w.shiftMonth(ctx, calendar.Month.Next)
}

func (w *Workspace) shiftMonth(ctx context.Context, step func(calendar.Month) calendar.Month) error {
	if err := w.editor.Flush(ctx); err != nil {
		return err
	}
	w.mu.Lock()
	w.month = step(w.month)
	w.mu.Unlock()
	return nil
}

// Today is the current date in the configured zone.
func (w *Workspace) Today() entry.Date {
	return entry.DateOf(w.now().In(w.loc))
}

func (w *Workspace) Month() calendar.Month {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.month
}

func (w *Workspace) Selected() entry.Date {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

func (w *Workspace) Editor() *Editor { return w.editor }

func (w *Workspace) Index() *calendar.Index { return w.index }

// Render draws the visible month.
func (w *Workspace) Render(opts calendar.Options) string {
	w.mu.Lock()
	month, selected := w.month, w.selected
	w.mu.Unlock()
	return calendar.Render(month, w.Today(), selected, w.index, opts)
}
