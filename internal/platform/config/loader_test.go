package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, ".config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 9090
log:
  log_level: "debug"
  log_dir: ""
image:
  min_payload_chars: 64
ref_store:
  type: "memory"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader().WithPath(configFile).WithDotEnv(false)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Image.MinPayloadChars != 64 {
		t.Errorf("expected min payload chars 64, got %d", cfg.Image.MinPayloadChars)
	}
	if cfg.RefStore.Type != "memory" {
		t.Errorf("expected ref store type memory, got %s", cfg.RefStore.Type)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Path != "data/calotrack.db" {
		t.Errorf("expected default database path, got %s", cfg.Database.Path)
	}
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "does-not-exist.yaml")).
		WithDotEnv(false)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("expected defaults on missing file, got error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("CALOTRACK_AUTH_SECRET", "env-secret")
	t.Setenv("CALOTRACK_ANALYSIS_API_KEY", "env-api-key")

	loader := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithDotEnv(false)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Auth.Secret != "env-secret" {
		t.Errorf("expected auth secret from env, got %q", cfg.Server.Auth.Secret)
	}
	if cfg.Analysis[cfg.Selected.Analysis].APIKey != "env-api-key" {
		t.Errorf("expected api key from env, got %q", cfg.Analysis[cfg.Selected.Analysis].APIKey)
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "invalid server port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name: "auth enabled without secret",
			mutate: func(c *Config) {
				c.Server.Auth.Enabled = true
				c.Server.Auth.Secret = ""
			},
			wantErr: true,
		},
		{
			name:    "unknown selected analysis provider",
			mutate:  func(c *Config) { c.Selected.Analysis = "Missing" },
			wantErr: true,
		},
		{
			name:    "non-positive image floor",
			mutate:  func(c *Config) { c.Image.MinPayloadChars = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := loader.validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
