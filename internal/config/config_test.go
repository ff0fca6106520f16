package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
log:
  level: debug
redis:
  addr: localhost:6379
  ttl: 30m
gemini:
  model: gemini-test
  timeout: 20s
  maxConcurrent: 4
leaderboard:
  limit: 15
  cacheTTL: 5s
session:
  ttl: 1h
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected server/log config: %+v", cfg)
	}
	if cfg.Gemini.Model != "gemini-test" || cfg.Gemini.MaxConcurrent != 4 {
		t.Fatalf("unexpected gemini config: %+v", cfg.Gemini)
	}
	if cfg.Leaderboard.Limit != 15 {
		t.Fatalf("expected leaderboard limit 15, got %d", cfg.Leaderboard.Limit)
	}
	if got := TTLDuration(cfg.Session.TTL, time.Minute); got != time.Hour {
		t.Fatalf("expected 1h session ttl, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"GEMINI_API_KEY":    "secret",
		"DATABASE_URL":      "postgres://quiz@db/quiz",
		"REDIS_ADDR":        "redis:6379",
		"LEADERBOARD_LIMIT": "not-a-number",
	}
	cfg := Config{}
	cfg.Leaderboard.Limit = 10
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	if cfg.Gemini.APIKey != "secret" {
		t.Fatalf("expected api key from env")
	}
	if cfg.Postgres.URL != "postgres://quiz@db/quiz" || cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Leaderboard.Limit != 10 {
		t.Fatalf("invalid limit must be ignored, got %d", cfg.Leaderboard.Limit)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
