package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("expected default HTTP_ADDR, got %s", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("expected 15m session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.LoginMaxAttempts != 5 {
		t.Fatalf("expected 5 login attempts, got %d", cfg.LoginMaxAttempts)
	}
	if !cfg.CookieSecure {
		t.Fatalf("expected secure cookies by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":13000")
	t.Setenv("DATA_DIR", "/tmp/uniproj-data")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("LOGIN_WINDOW_SECONDS", "600")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("COOKIE_SECURE", "false")

	cfg := Load()
	if cfg.HTTPAddr != ":13000" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.DataDir != "/tmp/uniproj-data" {
		t.Fatalf("expected DATA_DIR override, got %s", cfg.DataDir)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected SESSION_TTL 30m, got %s", cfg.SessionTTL)
	}
	if cfg.LoginWindow != 10*time.Minute {
		t.Fatalf("expected LOGIN_WINDOW 10m, got %s", cfg.LoginWindow)
	}
	if cfg.LoginMaxAttempts != 3 {
		t.Fatalf("expected LOGIN_MAX_ATTEMPTS 3, got %d", cfg.LoginMaxAttempts)
	}
	if cfg.CookieSecure {
		t.Fatalf("expected COOKIE_SECURE false")
	}
}
