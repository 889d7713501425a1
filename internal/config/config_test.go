package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault_Validates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("MUSIFY_CONCURRENT_FREE", "2")
	t.Setenv("MUSIFY_CONCURRENT_PREMIUM", "5")
	t.Setenv("MUSIFY_HEARTBEAT_TIMEOUT", "45s")

	l := NewLoader("")
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConcurrentFree != 2 {
		t.Errorf("ConcurrentFree = %d, want 2", cfg.ConcurrentFree)
	}
	if cfg.ConcurrentPremium != 5 {
		t.Errorf("ConcurrentPremium = %d, want 5", cfg.ConcurrentPremium)
	}
	if cfg.HeartbeatTimeout != 45*time.Second {
		t.Errorf("HeartbeatTimeout = %v, want 45s", cfg.HeartbeatTimeout)
	}
}

func TestLoad_YAMLFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/musify.yaml"
	yamlContent := "concurrent_free: 4\nconcurrent_premium: 10\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("MUSIFY_CONCURRENT_PREMIUM", "20")

	l := NewLoader(path)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConcurrentFree != 4 {
		t.Errorf("ConcurrentFree = %d, want 4 (from YAML)", cfg.ConcurrentFree)
	}
	if cfg.ConcurrentPremium != 20 {
		t.Errorf("ConcurrentPremium = %d, want 20 (env overrides YAML)", cfg.ConcurrentPremium)
	}
}

func TestLoad_UnknownYAMLFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/musify.yaml"
	if err := os.WriteFile(path, []byte("not_a_real_field: 123\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	l := NewLoader(path)
	if _, err := l.Load(); err == nil {
		t.Fatal("expected error for unknown YAML field, got nil")
	}
}

func TestValidate_RejectsInvalidBackend(t *testing.T) {
	cfg := Default()
	cfg.SessionStoreBackend = "filesystem"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid session_store_backend")
	}
}

func TestValidate_RejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*AppConfig)
	}{
		{"free zero", func(c *AppConfig) { c.ConcurrentFree = 0 }},
		{"premium negative", func(c *AppConfig) { c.ConcurrentPremium = -1 }},
		{"backoff multiplier too small", func(c *AppConfig) { c.RetryBackoffMultiplier = 1.0 }},
		{"zero heartbeat timeout", func(c *AppConfig) { c.HeartbeatTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(&cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("expected validation error for case %q", tt.name)
			}
		})
	}
}
