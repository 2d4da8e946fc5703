package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"calotrack-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db  *gorm.DB
	key string
}

// NewSQLite builds a SQLite-backed reference store on top of the shared
// database handle.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{
		db:  db,
		key: cfg.key(),
	}, nil
}

func (s *sqliteStore) Save(ctx context.Context, mealID string) error {
	record := &storage.PostedMealRef{
		Key:       s.key,
		MealID:    mealID,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", s.key).Delete(&storage.PostedMealRef{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

func (s *sqliteStore) Load(ctx context.Context) (string, bool, error) {
	var record storage.PostedMealRef
	err := s.db.WithContext(ctx).Where("key = ?", s.key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.MealID, true, nil
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("key = ?", s.key).Delete(&storage.PostedMealRef{}).Error
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}
