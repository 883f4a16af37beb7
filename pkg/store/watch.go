package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a state change notification.
type EventType int

const (
	// EventSessionChanged indicates the credential or user changed, typically
	// because another tranquil process signed in or out.
	EventSessionChanged EventType = iota

	// EventPreferencesChanged covers the remaining keys (welcome flag, last
	// chat session).
	EventPreferencesChanged
)

// Event is emitted by DiskStore.Watch when the state directory changes.
type Event struct {
	Type EventType
	Key  string
}

// Watch streams change events until ctx is cancelled. The store is reloaded
// from disk before each event is delivered. The channel is closed once ctx is
// done or the watcher fails.
func (s *DiskStore) Watch(ctx context.Context) (<-chan Event, error) {
	if s.basePath == "" {
		return nil, errors.New("store: base path unknown")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			_ = watcher.Close()
		})
	}

	if err := watcher.Add(s.basePath); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: watch %s: %w", s.basePath, err)
	}

	events := make(chan Event, 16)

	var (
		sendMu sync.Mutex
		closed bool
	)
	send := func(ev Event) {
		if err := s.Reload(); err != nil {
			return
		}
		sendMu.Lock()
		defer sendMu.Unlock()
		if closed {
			return
		}
		select {
		case events <- ev:
		default:
			// Consumer is behind; it reads current state on the next
			// event anyway.
		}
	}

	go func() {
		defer func() {
			sendMu.Lock()
			closed = true
			close(events)
			sendMu.Unlock()
		}()
		defer closeWatcher()

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				throttle.Enqueue(Event{Type: EventSessionChanged}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				key := filepath.Base(evt.Name)
				switch key {
				case keyToken, keyRefreshToken, keyUser:
					throttle.Enqueue(Event{Type: EventSessionChanged, Key: key}, send)
				case keyWelcomeSeen, keyLastChat:
					throttle.Enqueue(Event{Type: EventPreferencesChanged, Key: key}, send)
				}
			}
		}
	}()

	return events, nil
}

// eventThrottle coalesces bursts of writes (SetSession touches three files)
// into one notification per event type.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]string
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]string),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	t.pending[ev.Type] = ev.Key
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[EventType]string)
	t.timer = nil
	t.mu.Unlock()

	for eventType, key := range pending {
		send(Event{Type: eventType, Key: key})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
