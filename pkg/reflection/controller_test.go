package reflection

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/entry"
	"tableflip.dev/tranquil/pkg/store"
)

var now = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

func ts(t time.Time) entry.Timestamp { return entry.Timestamp{Time: t} }

type fakeBackend struct {
	mu       sync.Mutex
	sessions []api.ChatSession
	messages map[string][]api.ChatMessage
	created  int
	sendErr  error
	summary  map[string]string
	computed int

	// When set, SendSessionMessage waits on release.
	release chan struct{}
}

func newFake(sessions ...api.ChatSession) *fakeBackend {
	return &fakeBackend{
		sessions: sessions,
		messages: make(map[string][]api.ChatMessage),
		summary:  make(map[string]string),
	}
}

func (f *fakeBackend) ChatSessions(context.Context) ([]api.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ChatSession(nil), f.sessions...), nil
}

func (f *fakeBackend) CreateChatSession(context.Context) (api.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	s := api.ChatSession{ID: "new", CreatedAt: ts(now)}
	f.sessions = append([]api.ChatSession{s}, f.sessions...)
	return s, nil
}

func (f *fakeBackend) SessionMessages(_ context.Context, id string) ([]api.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ChatMessage(nil), f.messages[id]...), nil
}

func (f *fakeBackend) SendSessionMessage(_ context.Context, id, text string) (api.Exchange, error) {
	f.mu.Lock()
	release, err := f.release, f.sendErr
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	if err != nil {
		return api.Exchange{}, err
	}
	user := api.ChatMessage{ID: "u-" + text, SessionID: id, Role: api.RoleUser, Content: text, CreatedAt: ts(now.Add(time.Minute))}
	ai := api.ChatMessage{ID: "a-" + text, SessionID: id, Role: api.RoleAssistant, Content: "reply to " + text, CreatedAt: ts(now.Add(2 * time.Minute))}
	return api.Exchange{UserMessage: &user, AIMessage: &ai}, nil
}

func (f *fakeBackend) ChatSummary(_ context.Context, id string) (api.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if text, ok := f.summary[id]; ok {
		return api.ChatSummary{SessionID: id, SummaryText: text}, nil
	}
	return api.ChatSummary{}, &api.Error{Kind: api.KindNotFound, Status: http.StatusNotFound}
}

func (f *fakeBackend) CreateChatSummary(_ context.Context, id string) (api.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.computed++
	f.summary[id] = "computed"
	return api.ChatSummary{SessionID: id, SummaryText: "computed"}, nil
}

func newController(f *fakeBackend, prefs Preferences) *Controller {
	return New(f, prefs, WithLocation(time.UTC), WithClock(func() time.Time { return now }))
}

func TestLoadCreatesTodaysSessionOnce(t *testing.T) {
	f := newFake(api.ChatSession{ID: "old", CreatedAt: ts(now.AddDate(0, 0, -1))})
	c := newController(f, store.NewMemory())
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if f.created != 1 {
		t.Errorf("created = %d, want 1", f.created)
	}
	if c.Current() != "new" || c.Selected() != "new" || !c.InputEnabled() {
		t.Errorf("current=%q selected=%q input=%v", c.Current(), c.Selected(), c.InputEnabled())
	}
	if got := len(c.Sessions()); got != 2 {
		t.Errorf("sessions = %d", got)
	}
}

func TestLoadUsesExistingTodaySession(t *testing.T) {
	f := newFake(api.ChatSession{ID: "today", CreatedAt: ts(now.Add(-time.Hour))})
	c := newController(f, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.created != 0 || c.Current() != "today" {
		t.Errorf("created=%d current=%q", f.created, c.Current())
	}
}

func TestLoadRestoresLastSelection(t *testing.T) {
	f := newFake(
		api.ChatSession{ID: "today", CreatedAt: ts(now)},
		api.ChatSession{ID: "old", CreatedAt: ts(now.AddDate(0, 0, -3))},
	)
	prefs := store.NewMemory()
	_ = prefs.SetLastChatSession("old")
	c := newController(f, prefs)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Selected() != "old" || c.InputEnabled() {
		t.Errorf("selected=%q input=%v", c.Selected(), c.InputEnabled())
	}

	_ = prefs.SetLastChatSession("gone")
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Selected() != "today" {
		t.Errorf("selected = %q, want today", c.Selected())
	}
}

func TestPastSessionIsReadOnly(t *testing.T) {
	f := newFake(
		api.ChatSession{ID: "today", CreatedAt: ts(now)},
		api.ChatSession{ID: "old", CreatedAt: ts(now.AddDate(0, 0, -1))},
	)
	f.messages["old"] = []api.ChatMessage{
		{ID: "2", Role: api.RoleAssistant, Content: "b", CreatedAt: ts(now.AddDate(0, 0, -1).Add(time.Minute))},
		{ID: "1", Role: api.RoleUser, Content: "a", CreatedAt: ts(now.AddDate(0, 0, -1))},
	}
	c := newController(f, nil)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Select(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	if c.InputEnabled() {
		t.Error("input enabled for a past session")
	}
	items := c.Transcript()
	if len(items) != 2 || items[0].Content != "a" || items[1].Content != "b" {
		t.Errorf("transcript = %+v", items)
	}
	if err := c.Send(ctx, "hello"); !errors.Is(err, ErrReadOnlySession) {
		t.Errorf("Send() = %v, want ErrReadOnlySession", err)
	}
	if err := c.Select(ctx, "missing"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Select() = %v", err)
	}
}

func TestSendEmptyIsValidation(t *testing.T) {
	f := newFake(api.ChatSession{ID: "today", CreatedAt: ts(now)})
	c := newController(f, nil)
	_ = c.Load(context.Background())
	err := c.Send(context.Background(), "  \n ")
	if api.KindOf(err) != api.KindValidation {
		t.Fatalf("Send() = %v", err)
	}
	if len(c.Transcript()) != 0 {
		t.Error("empty message appended")
	}
}

func TestSendConfirmsAndAppendsReply(t *testing.T) {
	f := newFake(api.ChatSession{ID: "today", CreatedAt: ts(now)})
	f.release = make(chan struct{})
	c := newController(f, nil)
	ctx := context.Background()
	_ = c.Load(ctx)

	done := make(chan error, 1)
	go func() { done <- c.Send(ctx, " how was today ") }()

	// The pending message is visible before the reply.
	var items []Item
	for i := 0; i < 200; i++ {
		if items = c.Transcript(); len(items) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if len(items) != 1 || items[0].Status != StatusPending || items[0].Content != "how was today" {
		t.Fatalf("pending transcript = %+v", items)
	}
	if items[0].CorrelationID == "" {
		t.Error("pending item has no correlation id")
	}

	close(f.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	items = c.Transcript()
	if len(items) != 2 {
		t.Fatalf("transcript = %+v", items)
	}
	if items[0].Status != StatusConfirmed || items[0].ID != "u-how was today" {
		t.Errorf("user item = %+v", items[0])
	}
	if items[1].Role != api.RoleAssistant || items[1].Content != "reply to how was today" {
		t.Errorf("reply item = %+v", items[1])
	}
}

func TestSendFailureMarksFailed(t *testing.T) {
	f := newFake(api.ChatSession{ID: "today", CreatedAt: ts(now)})
	f.sendErr = &api.Error{Kind: api.KindServer, Status: 500, Message: "Server error. Please try again later."}
	c := newController(f, nil)
	ctx := context.Background()
	_ = c.Load(ctx)

	if err := c.Send(ctx, "hello"); err == nil {
		t.Fatal("Send() succeeded")
	}
	items := c.Transcript()
	if len(items) != 2 {
		t.Fatalf("transcript = %+v", items)
	}
	if items[0].Status != StatusFailed || items[0].Content != "hello" {
		t.Errorf("user item = %+v", items[0])
	}
	if items[1].Status != StatusLocal || !strings.HasPrefix(items[1].Content, FailedPrefix) {
		t.Errorf("notice = %+v", items[1])
	}
	if !strings.HasSuffix(items[1].Content, "Server error. Please try again later.") {
		t.Errorf("notice = %q", items[1].Content)
	}
}

func TestReplyForOldSelectionDropped(t *testing.T) {
	f := newFake(
		api.ChatSession{ID: "today", CreatedAt: ts(now)},
		api.ChatSession{ID: "old", CreatedAt: ts(now.AddDate(0, 0, -1))},
	)
	f.release = make(chan struct{})
	c := newController(f, nil)
	ctx := context.Background()
	_ = c.Load(ctx)

	done := make(chan error, 1)
	go func() { done <- c.Send(ctx, "late") }()
	for i := 0; i < 200 && len(c.Transcript()) == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if err := c.Select(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	close(f.release)
	<-done

	for _, it := range c.Transcript() {
		if strings.Contains(it.Content, "late") {
			t.Errorf("reply leaked into another session: %+v", it)
		}
	}
}

func TestSummarizeFallsBackToCompute(t *testing.T) {
	f := newFake(api.ChatSession{ID: "today", CreatedAt: ts(now)})
	c := newController(f, nil)
	ctx := context.Background()
	_ = c.Load(ctx)

	sum, err := c.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.SummaryText != "computed" || f.computed != 1 {
		t.Errorf("summary=%q computed=%d", sum.SummaryText, f.computed)
	}
	if _, err := c.Summarize(ctx); err != nil {
		t.Fatal(err)
	}
	if f.computed != 1 {
		t.Errorf("stored summary recomputed")
	}
}

func TestTranscriptOrdering(t *testing.T) {
	var tr Transcript
	base := now
	tr.Append(api.ChatMessage{ID: "b", Content: "b", CreatedAt: ts(base.Add(time.Second))})
	tr.Append(api.ChatMessage{ID: "a", Content: "a", CreatedAt: ts(base)})
	first := tr.AddPending("p1", base.Add(time.Second))
	second := tr.AddPending("p2", base.Add(time.Second))

	got := contents(tr.Items())
	if got != "a b p1 p2" {
		t.Errorf("order = %q", got)
	}

	// Replies confirmed out of order still sort by time.
	tr.Confirm(second, &api.ChatMessage{ID: "s2", CreatedAt: ts(base.Add(3 * time.Second))})
	tr.Confirm(first, &api.ChatMessage{ID: "s1", CreatedAt: ts(base.Add(2 * time.Second))})
	if got := contents(tr.Items()); got != "a b p1 p2" {
		t.Errorf("order after confirm = %q", got)
	}
	if tr.Confirm("nope", nil) || tr.Fail("") {
		t.Error("unknown correlation id matched")
	}
}

func contents(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Content
	}
	return strings.Join(parts, " ")
}
