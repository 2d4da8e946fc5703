package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig              `yaml:"server"`
	Log      LogConfig                 `yaml:"log"`
	Database DatabaseConfig            `yaml:"database"`
	RefStore RefStoreConfig            `yaml:"ref_store"`
	Image    ImageConfig               `yaml:"image"`
	Analysis map[string]AnalysisConfig `yaml:"analysis"`
	Selected SelectedConfig            `yaml:"selected_module"`
}

type ServerConfig struct {
	IP   string     `yaml:"ip"`
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RefStoreConfig selects the durable posted-meal reference store driver.
type RefStoreConfig struct {
	Type   string              `yaml:"type"`
	Key    string              `yaml:"key"`
	Redis  RefStoreRedisConfig `yaml:"redis,omitempty"`
	SQLite RefStoreSQLite      `yaml:"sqlite,omitempty"`
}

type RefStoreRedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type RefStoreSQLite struct {
	DSN string `yaml:"dsn,omitempty"`
}

// ImageConfig bounds accepted image payloads before any network call is made.
type ImageConfig struct {
	MinPayloadChars int   `yaml:"min_payload_chars"`
	MaxPayloadBytes int64 `yaml:"max_payload_bytes"`
}

type AnalysisConfig struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Language    string  `yaml:"language"`
}

type SelectedConfig struct {
	Analysis string `yaml:"analysis"`
}
