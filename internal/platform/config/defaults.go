package config

import "time"

// DefaultConfig returns the configuration used when no file overrides exist.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
			Auth: AuthConfig{
				Enabled:  false,
				TokenTTL: 24 * time.Hour,
			},
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			Path: "data/calotrack.db",
		},
		RefStore: RefStoreConfig{
			Type: "sqlite",
			Key:  "posted_meal_id",
		},
		Image: ImageConfig{
			MinPayloadChars: 128,
			MaxPayloadBytes: 5 * 1024 * 1024,
		},
		Analysis: map[string]AnalysisConfig{
			"OpenAIVision": {
				Type:        "openai",
				ModelName:   "gpt-4o-mini",
				Temperature: 0.2,
				MaxTokens:   2000,
				Language:    "en",
			},
			"OllamaVision": {
				Type:      "ollama",
				ModelName: "llava",
				BaseURL:   "http://localhost:11434",
				Language:  "en",
			},
		},
		Selected: SelectedConfig{
			Analysis: "OpenAIVision",
		},
	}
}
