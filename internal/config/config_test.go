package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Cache.TTL.Duration != 30*time.Second {
		t.Errorf("cache TTL = %v, want 30s", cfg.Cache.TTL.Duration)
	}
	if cfg.Arbitrage.MinSpread != 0.03 {
		t.Errorf("min spread = %v, want 0.03", cfg.Arbitrage.MinSpread)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Cache.Backend = "memcached"
	cfg.Arbitrage.MinSpread = 1.5
	cfg.Notify.TelegramToken = "token-without-chat-id"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("want validation failure")
	}
	for _, want := range []string{
		`unknown mode "turbo"`,
		`unknown backend "memcached"`,
		"min_spread must be in (0, 1)",
		"telegram_token and telegram_chat_id must be set together",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateWatchMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "watch"
	cfg.Watch.Stake = 0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "stake must be > 0") {
		t.Fatalf("err = %v, want stake complaint", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
mode = "watch"

[kalshi]
enabled = false

[cache]
backend = "redis"
ttl = "45s"

[arbitrage]
min_spread = 0.05

[watch]
interval = "5m"
query = "bitcoin"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "watch" {
		t.Errorf("Mode = %q, want watch", cfg.Mode)
	}
	if cfg.Kalshi.Enabled {
		t.Error("kalshi should be disabled by the file")
	}
	if cfg.Polymarket.GammaURL != "https://gamma-api.polymarket.com" {
		t.Errorf("untouched default lost: gamma_url = %q", cfg.Polymarket.GammaURL)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTL.Duration != 45*time.Second {
		t.Errorf("cache = %q/%v", cfg.Cache.Backend, cfg.Cache.TTL.Duration)
	}
	if cfg.Arbitrage.MinSpread != 0.05 {
		t.Errorf("min_spread = %v", cfg.Arbitrage.MinSpread)
	}
	if cfg.Watch.Interval.Duration != 5*time.Minute || cfg.Watch.Query != "bitcoin" {
		t.Errorf("watch = %v/%q", cfg.Watch.Interval.Duration, cfg.Watch.Query)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("ARBSCOPE_MODE", "health")
	t.Setenv("ARBSCOPE_ARBITRAGE_MIN_SPREAD", "0.07")
	t.Setenv("ARBSCOPE_CACHE_TTL", "90s")
	t.Setenv("ARBSCOPE_KALSHI_ENABLED", "false")
	t.Setenv("ARBSCOPE_NOTIFY_EVENTS", "arb_detected, scan_failed")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "health" {
		t.Errorf("Mode = %q, want health", cfg.Mode)
	}
	if cfg.Arbitrage.MinSpread != 0.07 {
		t.Errorf("min_spread = %v, want 0.07", cfg.Arbitrage.MinSpread)
	}
	if cfg.Cache.TTL.Duration != 90*time.Second {
		t.Errorf("ttl = %v, want 90s", cfg.Cache.TTL.Duration)
	}
	if cfg.Kalshi.Enabled {
		t.Error("kalshi should be disabled via env")
	}
	want := []string{"arb_detected", "scan_failed"}
	if len(cfg.Notify.Events) != 2 || cfg.Notify.Events[0] != want[0] || cfg.Notify.Events[1] != want[1] {
		t.Errorf("events = %v, want %v", cfg.Notify.Events, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("want error for missing config file")
	}
}
