package reflection

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"tableflip.dev/tranquil/pkg/api"
)

// Status of a transcript item.
type Status int

const (
	// StatusConfirmed items came from the server.
	StatusConfirmed Status = iota
	// StatusPending items were sent and have no answer yet.
	StatusPending
	// StatusFailed items were sent and the send failed.
	StatusFailed
	// StatusLocal items exist only on this client, such as error notices.
	StatusLocal
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	case StatusLocal:
		return "local"
	}
	return "confirmed"
}

// Item is one line of the visible conversation.
type Item struct {
	ID            string
	CorrelationID string
	Role          api.Role
	Content       string
	CreatedAt     time.Time
	Status        Status

	seq uint64
}

// Transcript is the ordered list of items for one session, oldest first.
// Items with equal CreatedAt keep insertion order. It is not safe for
// concurrent use.
type Transcript struct {
	items []Item
	seq   uint64
}

// Reset replaces the transcript with server messages.
func (t *Transcript) Reset(msgs []api.ChatMessage) {
	t.items = t.items[:0]
	for _, m := range msgs {
		t.add(fromMessage(m))
	}
	t.sort()
}

// AddPending appends an optimistic user message and returns its correlation
// id.
func (t *Transcript) AddPending(content string, at time.Time) string {
	id := uuid.New().String()
	t.add(Item{CorrelationID: id, Role: api.RoleUser, Content: content, CreatedAt: at, Status: StatusPending})
	t.sort()
	return id
}

// Confirm settles the pending item with correlation id corr. When the server
// echoed the stored message its id, content and timestamp replace the local
// ones.
func (t *Transcript) Confirm(corr string, msg *api.ChatMessage) bool {
	i := t.find(corr)
	if i < 0 {
		return false
	}
	it := &t.items[i]
	it.Status = StatusConfirmed
	if msg != nil {
		it.ID = msg.ID
		if msg.Content != "" {
			it.Content = msg.Content
		}
		if !msg.CreatedAt.IsZero() {
			it.CreatedAt = msg.CreatedAt.Time
		}
	}
	t.sort()
	return true
}

// Fail marks the pending item with correlation id corr as failed.
func (t *Transcript) Fail(corr string) bool {
	i := t.find(corr)
	if i < 0 {
		return false
	}
	t.items[i].Status = StatusFailed
	return true
}

// Append adds a confirmed server message.
func (t *Transcript) Append(msg api.ChatMessage) {
	t.add(fromMessage(msg))
	t.sort()
}

// AppendLocal adds a client-only notice.
func (t *Transcript) AppendLocal(role api.Role, content string, at time.Time) {
	t.add(Item{Role: role, Content: content, CreatedAt: at, Status: StatusLocal})
	t.sort()
}

// Item returns the item with correlation id corr.
func (t *Transcript) Item(corr string) (Item, bool) {
	i := t.find(corr)
	if i < 0 {
		return Item{}, false
	}
	return t.items[i], true
}

// Items returns a copy of the transcript.
func (t *Transcript) Items() []Item {
	return append([]Item(nil), t.items...)
}

func (t *Transcript) Len() int { return len(t.items) }

func (t *Transcript) add(it Item) {
	t.seq++
	it.seq = t.seq
	t.items = append(t.items, it)
}

func (t *Transcript) find(corr string) int {
	if corr == "" {
		return -1
	}
	for i := range t.items {
		if t.items[i].CorrelationID == corr {
			return i
		}
	}
	return -1
}

func (t *Transcript) sort() {
	sort.SliceStable(t.items, func(i, j int) bool {
		a, b := t.items[i], t.items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.seq < b.seq
	})
}

func fromMessage(m api.ChatMessage) Item {
	return Item{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt.Time, Status: StatusConfirmed}
}
