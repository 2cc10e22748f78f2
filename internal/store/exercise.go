package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseRepo reads exercises and applies the slow inverse difficulty
// drift.
type ExerciseRepo struct {
	db *gorm.DB
}

func (r *ExerciseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetActive returns the exercise if it exists and is active.
func (r *ExerciseRepo) GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Exercise, error) {
	var row Exercise
	err := r.conn(tx).WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// Create inserts a new exercise (seeding/authoring path).
func (r *ExerciseRepo) Create(ctx context.Context, tx *gorm.DB, row *Exercise) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return translate(r.conn(tx).WithContext(ctx).Create(row).Error)
}

// UpdateDifficultyGuarded writes the drifted difficulty under a version
// guard.
func (r *ExerciseRepo) UpdateDifficultyGuarded(ctx context.Context, tx *gorm.DB, row *Exercise) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&Exercise{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"difficulty_rating": row.DifficultyRating,
			"version":           row.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	row.Version++
	return nil
}
