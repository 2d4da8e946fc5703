package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".config.yaml"

// Loader reads the service configuration from a yaml file with env overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

func NewLoader() *Loader {
	return &Loader{
		path:      defaultConfigFile,
		useDotEnv: true,
	}
}

// WithPath overrides the config file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Load reads defaults, merges the yaml file when present, and applies
// environment overrides for secrets.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment are enough for a fresh install.
	default:
		return nil, fmt.Errorf("read config file %s: %w", l.path, err)
	}

	l.applyEnvOverrides(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CALOTRACK_AUTH_SECRET"); v != "" {
		cfg.Server.Auth.Secret = v
	}
	if v := os.Getenv("CALOTRACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CALOTRACK_ANALYSIS_API_KEY"); v != "" {
		selected := cfg.Selected.Analysis
		if entry, ok := cfg.Analysis[selected]; ok {
			entry.APIKey = v
			cfg.Analysis[selected] = entry
		}
	}
	if v := os.Getenv("CALOTRACK_REDIS_ADDR"); v != "" {
		cfg.RefStore.Redis.Addr = v
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.Auth.Enabled && cfg.Server.Auth.Secret == "" {
		return fmt.Errorf("auth enabled but no secret configured")
	}
	if cfg.Image.MinPayloadChars <= 0 {
		return fmt.Errorf("image min_payload_chars must be positive")
	}
	if cfg.Selected.Analysis != "" {
		if _, ok := cfg.Analysis[cfg.Selected.Analysis]; !ok {
			return fmt.Errorf("selected analysis provider %q not configured", cfg.Selected.Analysis)
		}
	}
	return nil
}
