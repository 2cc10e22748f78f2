package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualoop/lingualoop/internal/rating"
)

// ProfileRepo persists learner-language aggregate profiles.
type ProfileRepo struct {
	db *gorm.DB
}

func (r *ProfileRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Find loads the learner's profile for a language, returning nil when
// none exists yet.
func (r *ProfileRepo) Find(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, languageID string) (*LanguageProfile, error) {
	var row LanguageProfile
	err := r.conn(tx).WithContext(ctx).
		Where("learner_id = ? AND language_id = ?", learnerID, languageID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetOrCreate loads the learner's profile for a language, creating it
// with default overall rating/RD when absent.
func (r *ProfileRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, languageID string, bands []rating.Band) (*LanguageProfile, error) {
	t := r.conn(tx)

	var row LanguageProfile
	err := t.WithContext(ctx).
		Where("learner_id = ? AND language_id = ?", learnerID, languageID).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = LanguageProfile{
		LearnerID:     learnerID,
		LanguageID:    languageID,
		OverallRating: rating.DefaultRating,
		OverallRD:     rating.DefaultRD,
		OverallCEFR:   rating.MapToCEFR(rating.DefaultRating, bands),
	}
	if err := t.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// UpdateGuarded writes back the recomputed aggregate under a version
// guard.
func (r *ProfileRepo) UpdateGuarded(ctx context.Context, tx *gorm.DB, row *LanguageProfile) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&LanguageProfile{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"overall_rating": row.OverallRating,
			"overall_rd":     row.OverallRD,
			"overall_cefr":   row.OverallCEFR,
			"total_attempts": row.TotalAttempts,
			"streak_count":   row.StreakCount,
			"last_active_at": row.LastActiveAt,
			"version":        row.Version + 1,
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
