package store

import (
	"context"
)

// Store persists the posted-meal reference across process restarts. The
// reference is a single slot under a fixed key: its presence is the sole
// signal that the current pending meal has been committed at least once.
type Store interface {
	Save(ctx context.Context, mealID string) error
	Load(ctx context.Context) (mealID string, found bool, err error)
	Clear(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	// Key under which the reference is stored; drivers fall back to
	// DefaultKey when empty.
	Key    string
	Redis  *RedisConfig
	SQLite *SQLiteConfig
}

// DefaultKey is the fixed slot name used when none is configured.
const DefaultKey = "posted_meal_id"

// SQLiteConfig provides the database dependency.
type SQLiteConfig struct {
	DSN string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

func (c Config) key() string {
	if c.Key != "" {
		return c.Key
	}
	return DefaultKey
}
