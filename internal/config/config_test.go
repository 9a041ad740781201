package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.DBPath != "tracker.db" || cfg.SaveDelay != 3*time.Second {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
	if cfg.FullVersion || cfg.FreeIssueLimit != 0 || cfg.ReminderBuffer != 64 {
		t.Fatalf("unexpected runtime defaults: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected log defaults: %+v", cfg)
	}
}

func TestRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("TRACKER_DB_PATH", "data/issues.db")
	t.Setenv("TRACKER_SAVE_DELAY", "1500ms")
	t.Setenv("TRACKER_FULL_VERSION", "yes")
	t.Setenv("TRACKER_FREE_ISSUE_LIMIT", "50")
	t.Setenv("TRACKER_REMINDER_BUFFER", "128")
	t.Setenv("TRACKER_LOG_LEVEL", "DEBUG")
	t.Setenv("TRACKER_LOG_FORMAT", "json")
	t.Setenv("TRACKER_WATCH", "off")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.DBPath != "data/issues.db" || cfg.SaveDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected storage config: %+v", cfg)
	}
	if !cfg.FullVersion || cfg.FreeIssueLimit != 50 || cfg.ReminderBuffer != 128 {
		t.Fatalf("unexpected runtime overrides: %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.WatchRemote {
		t.Fatalf("unexpected log/watch overrides: %+v", cfg)
	}
}

func TestRuntimeConfigIgnoresInvalidValues(t *testing.T) {
	t.Setenv("TRACKER_SAVE_DELAY", "soon")
	t.Setenv("TRACKER_FREE_ISSUE_LIMIT", "-3")
	t.Setenv("TRACKER_FULL_VERSION", "maybe")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg != DefaultRuntimeConfig() {
		t.Fatalf("invalid values should keep defaults, got %+v", cfg)
	}
}

func TestSaveDelayAcceptsSeconds(t *testing.T) {
	t.Setenv("TRACKER_SAVE_DELAY", "5")
	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.SaveDelay != 5*time.Second {
		t.Fatalf("expected 5s, got %v", cfg.SaveDelay)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TRACKER_FREE_ISSUE_LIMIT=7\nTRACKER_DB_PATH=from-file.db\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("TRACKER_DB_PATH", "from-env.db")
	// t.Setenv restores the value; register the other key so it is cleaned up too.
	t.Setenv("TRACKER_FREE_ISSUE_LIMIT", "")
	os.Unsetenv("TRACKER_FREE_ISSUE_LIMIT")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.FreeIssueLimit != 7 {
		t.Fatalf("expected limit from file, got %d", cfg.FreeIssueLimit)
	}
	if cfg.DBPath != "from-env.db" {
		t.Fatalf("existing env must win over file, got %q", cfg.DBPath)
	}
}
