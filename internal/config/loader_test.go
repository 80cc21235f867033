package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "" {
		t.Errorf("expected in-memory store by default, got %q", cfg.SQLiteDSN)
	}
	if cfg.ViewCacheTTL != 15*time.Second {
		t.Errorf("unexpected default cache ttl %v", cfg.ViewCacheTTL)
	}
	if cfg.EventBufferSize != 64 {
		t.Errorf("unexpected default event buffer size %d", cfg.EventBufferSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected default log level %q", cfg.LogLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "http_port: 9090\nsqlite_dsn: file:poll.db\ndefault_max_voters: 20\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("SLOTPOLL_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:poll.db" {
		t.Errorf("unexpected dsn %q", cfg.SQLiteDSN)
	}
	if cfg.DefaultMaxVoters != 20 {
		t.Errorf("unexpected default cap %d", cfg.DefaultMaxVoters)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http_port: 9090\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("SLOTPOLL_CONFIG_PATH", path)
	t.Setenv("SLOTPOLL_HTTP_PORT", "7070")
	t.Setenv("SLOTPOLL_SQLITE_DSN", "file:env.db")
	t.Setenv("SLOTPOLL_VIEW_CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:env.db" {
		t.Errorf("unexpected dsn %q", cfg.SQLiteDSN)
	}
	if cfg.ViewCacheTTL != 30*time.Second {
		t.Errorf("unexpected cache ttl %v", cfg.ViewCacheTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SLOTPOLL_HTTP_PORT":         "not-a-port",
		"SLOTPOLL_VIEW_CACHE_TTL":    "-5s",
		"SLOTPOLL_EVENT_BUFFER_SIZE": "0",
		"SLOTPOLL_LOG_LEVEL":         "loud",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(name, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", name, value)
			}
		})
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SLOTPOLL_CONFIG_PATH",
		"SLOTPOLL_HTTP_PORT",
		"SLOTPOLL_SQLITE_DSN",
		"SLOTPOLL_DEFAULT_MAX_VOTERS",
		"SLOTPOLL_VIEW_CACHE_TTL",
		"SLOTPOLL_EVENT_BUFFER_SIZE",
		"SLOTPOLL_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}
