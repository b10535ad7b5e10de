package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_SECRET": testSecret,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.Backend.URL != "http://localhost:8080/api/v1" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("backend timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session ttl = %v", cfg.Session.TTL)
	}
	if cfg.Session.CookieName != "portal_session" {
		t.Errorf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.Query.Debounce != 300*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Query.Debounce)
	}
	if cfg.AuditWorkers != 4 {
		t.Errorf("audit workers = %d", cfg.AuditWorkers)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("expected development env by default")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_SECRET":        testSecret,
		"ENV":                   "production",
		"API_URL":               "https://api.example.com/v1",
		"SESSION_COOKIE_SECURE": "true",
		"REDIS_DB":              "3",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Errorf("expected production")
	}
	if cfg.Backend.URL != "https://api.example.com/v1" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if !cfg.Session.CookieSecure {
		t.Errorf("expected secure cookie")
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("redis db = %d", cfg.Redis.DB)
	}
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error for missing SESSION_SECRET")
	}
}

func TestLoadFrom_ShortSecret(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_SECRET": "short",
	}))
	if err == nil {
		t.Fatalf("expected error for short SESSION_SECRET")
	}
}
