package api

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tableflip.dev/tranquil/pkg/entry"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func zerologTo(b *syncBuffer) zerolog.Logger {
	return zerolog.New(b).Level(zerolog.DebugLevel)
}

func mustDate(t *testing.T, v string) entry.Date {
	t.Helper()
	d, err := entry.ParseDate(v)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}
