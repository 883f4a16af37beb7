package calendar

import (
	"sort"
	"sync"
	"time"

	"tableflip.dev/tranquil/pkg/entry"
)

// Index is the set of dates the user has a journal entry for. It is rebuilt
// from the server's list on load and marked locally after each save.
type Index struct {
	mu    sync.RWMutex
	dates map[entry.Date]struct{}
}

// NewIndex returns an index holding dates.
func NewIndex(dates ...entry.Date) *Index {
	idx := &Index{dates: make(map[entry.Date]struct{}, len(dates))}
	for _, d := range dates {
		idx.dates[d] = struct{}{}
	}
	return idx
}

// Replace swaps the whole set, as after a full refresh.
func (i *Index) Replace(dates []entry.Date) {
	next := make(map[entry.Date]struct{}, len(dates))
	for _, d := range dates {
		next[d] = struct{}{}
	}
	i.mu.Lock()
	i.dates = next
	i.mu.Unlock()
}

// Mark records that d has an entry.
func (i *Index) Mark(d entry.Date) {
	i.mu.Lock()
	i.dates[d] = struct{}{}
	i.mu.Unlock()
}

func (i *Index) Has(d entry.Date) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.dates[d]
	return ok
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.dates)
}

// Dates returns every date in ascending order.
func (i *Index) Dates() []entry.Date {
	i.mu.RLock()
	out := make([]entry.Date, 0, len(i.dates))
	for d := range i.dates {
		out = append(out, d)
	}
	i.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].Before(out[b]) })
	return out
}

// InMonth returns the dates falling in year/month, ascending.
func (i *Index) InMonth(year int, month time.Month) []entry.Date {
	var out []entry.Date
	for _, d := range i.Dates() {
		if d.SameMonth(year, month) {
			out = append(out, d)
		}
	}
	return out
}
