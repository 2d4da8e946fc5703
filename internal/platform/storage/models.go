package storage

import "time"

// MealRecord is a committed meal as returned by the persistence service.
type MealRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255;not null"`
	Description string
	Language    string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Ingredients []MealIngredientRecord `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
	Revisions   []MealRevisionRecord   `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
}

// MealIngredientRecord stores one ingredient row; Position preserves the
// display order of the draft it came from.
type MealIngredientRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	MealID   string `gorm:"index;size:64;not null"`
	Position int    `gorm:"not null"`
	Name     string `gorm:"size:255;not null"`

	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
	FiberG   *float64
	SugarG   *float64
	SodiumMg *float64
}

// MealRevisionRecord stores the correction summary sent with each update.
type MealRevisionRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	MealID     string `gorm:"index;size:64;not null"`
	Correction string `gorm:"not null"`
	CreatedAt  time.Time
}

// PostedMealRef backs the sqlite driver of the durable reference store.
// A single row per key; presence of the row is the committed-at-least-once
// signal.
type PostedMealRef struct {
	Key       string `gorm:"primaryKey;size:64"`
	MealID    string `gorm:"size:64;not null"`
	UpdatedAt time.Time
}
