package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"calotrack-server-go/internal/domain/meal"
	"calotrack-server-go/internal/platform/errors"
	"calotrack-server-go/internal/platform/logging"
	"calotrack-server-go/internal/platform/storage"
)

// Repository implements the meal persistence contract on the relational
// store: one-shot create for a reviewed draft, correction-based update for a
// committed meal.
type Repository struct {
	db       *gorm.DB
	logger   *logging.Logger
	language string
}

// NewRepository builds a repository over an opened database handle.
func NewRepository(db *gorm.DB, logger *logging.Logger, language string) (*Repository, error) {
	if db == nil {
		return nil, errors.New(errors.KindConfig, "persistence.new", "database handle is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}
	if language == "" {
		language = "en"
	}
	return &Repository{db: db, logger: logger, language: language}, nil
}

// Create commits a draft for the first time and returns the assigned meal id.
// The image payload itself is not stored; only the reviewed analysis is.
func (r *Repository) Create(ctx context.Context, draft *meal.PendingMeal) (string, error) {
	if draft == nil {
		return "", errors.New(errors.KindValidation, "persistence.create", "draft is required")
	}

	mealID := uuid.NewString()
	now := time.Now()

	record := storage.MealRecord{
		ID:          mealID,
		Name:        draft.Analysis.Name,
		Description: draft.Analysis.Description,
		Language:    r.language,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, ing := range draft.Analysis.Ingredients {
		record.Ingredients = append(record.Ingredients, storage.MealIngredientRecord{
			Position: i,
			Name:     ing.Name,
			Calories: ing.Calories,
			ProteinG: ing.ProteinG,
			CarbsG:   ing.CarbsG,
			FatG:     ing.FatG,
			FiberG:   ing.FiberG,
			SugarG:   ing.SugarG,
			SodiumMg: ing.SodiumMg,
		})
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", errors.Wrap(errors.KindPersistence, "persistence.create", "insert meal", err)
	}

	r.logger.InfoTag("Persist", "meal created: id=%s ingredients=%d", mealID, len(record.Ingredients))
	return mealID, nil
}

// Update records a correction against an existing meal. The structured rows
// are not rewritten; the correction summary is appended as a revision and
// the meal's updated timestamp bumped.
func (r *Repository) Update(ctx context.Context, mealID, correction string) error {
	if mealID == "" {
		return errors.New(errors.KindValidation, "persistence.update", "meal id is required")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record storage.MealRecord
		if err := tx.First(&record, "id = ?", mealID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.KindPersistence, "persistence.update", "meal not found: "+mealID)
			}
			return errors.Wrap(errors.KindPersistence, "persistence.update", "load meal", err)
		}

		revision := storage.MealRevisionRecord{
			MealID:     mealID,
			Correction: correction,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&revision).Error; err != nil {
			return errors.Wrap(errors.KindPersistence, "persistence.update", "insert revision", err)
		}

		if err := tx.Model(&record).Update("updated_at", time.Now()).Error; err != nil {
			return errors.Wrap(errors.KindPersistence, "persistence.update", "touch meal", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoTag("Persist", "meal updated: id=%s correction_length=%d", mealID, len(correction))
	return nil
}

// Get loads a committed meal with its ingredients in display order.
func (r *Repository) Get(ctx context.Context, mealID string) (*storage.MealRecord, error) {
	var record storage.MealRecord
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Revisions").
		First(&record, "id = ?", mealID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.KindPersistence, "persistence.get", "meal not found: "+mealID)
		}
		return nil, errors.Wrap(errors.KindPersistence, "persistence.get", "load meal", err)
	}
	return &record, nil
}
