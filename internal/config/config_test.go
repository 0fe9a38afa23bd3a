package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "SCORES_URL", "CHAT_API_URL",
		"CHAT_POLL_SECONDS", "SESSION_TTL_MINUTES", "REQUEST_TIMEOUT_SECONDS",
		"JWT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseURL != "" || cfg.ScoresURL != "" || cfg.ChatAPIURL != "" {
		t.Errorf("URLs should default to empty: %+v", cfg)
	}
	if cfg.ChatPoll != 5*time.Second {
		t.Errorf("ChatPoll = %v, want 5s", cfg.ChatPoll)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://localhost/arcade")
	t.Setenv("SCORES_URL", "http://scores.local/api/scores")
	t.Setenv("CHAT_API_URL", "http://chat.local")
	t.Setenv("CHAT_POLL_SECONDS", "2")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.DatabaseURL != "postgres://localhost/arcade" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.ScoresURL != "http://scores.local/api/scores" || cfg.ChatAPIURL != "http://chat.local" {
		t.Errorf("service URLs = %q, %q", cfg.ScoresURL, cfg.ChatAPIURL)
	}
	if cfg.ChatPoll != 2*time.Second || cfg.SessionTTL != 15*time.Minute || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("durations = %v, %v, %v", cfg.ChatPoll, cfg.SessionTTL, cfg.RequestTimeout)
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_POLL_SECONDS", "abc")
	t.Setenv("SESSION_TTL_MINUTES", "-5")

	cfg := Load()

	if cfg.ChatPoll != 5*time.Second {
		t.Errorf("ChatPoll = %v, want 5s (fallback)", cfg.ChatPoll)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h (fallback)", cfg.SessionTTL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SCORES_URL")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SCORES_URL=http://from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if cfg := Load(); cfg.ScoresURL != "http://from-dotenv" {
		t.Errorf("ScoresURL = %q, want value from .env", cfg.ScoresURL)
	}
}
