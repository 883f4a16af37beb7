package store

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRANQUIL_PATH", filepath.Join(dir, "state"))
	t.Setenv("TRANQUIL_API", "http://api.test/api/")
	t.Setenv("TRANQUIL_TIMEZONE", "UTC")
	t.Setenv("TRANQUIL_CONFIG_PATH", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got := cfg.BasePath(); got != filepath.Join(dir, "state") {
		t.Fatalf("base path = %q", got)
	}
	if got := cfg.APIBaseURL(); got != "http://api.test/api" {
		t.Fatalf("api = %q, trailing slash should be trimmed", got)
	}
	if got := cfg.Location().String(); got != "UTC" {
		t.Fatalf("location = %q", got)
	}
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TRANQUIL_PATH", t.TempDir())
	t.Setenv("TRANQUIL_TIMEZONE", "Not/AZone")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected timezone error")
	}
}
