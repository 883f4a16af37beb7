package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, `"k":"v"`) || !strings.Contains(out, `"app":"tranquil"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestFileAppends(t *testing.T) {
	dir := t.TempDir()
	log, f, err := File(dir, true)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	log.Debug().Msg("first")
	f.Close()

	raw, err := os.ReadFile(filepath.Join(dir, "tranquil.log"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "first") {
		t.Fatalf("log missing message: %s", raw)
	}
}
