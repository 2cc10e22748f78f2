package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualoop/lingualoop/internal/rating"
)

// SkillRatingRepo persists per-learner-per-skill rating rows.
type SkillRatingRepo struct {
	db *gorm.DB
}

func (r *SkillRatingRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetOrCreate loads the learner's rating row for a skill, creating it
// with defaults (rating 1000, RD 350) on first contact.
func (r *SkillRatingRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, languageID, skillID string) (*SkillRating, error) {
	t := r.conn(tx)

	var row SkillRating
	err := t.WithContext(ctx).
		Where("learner_id = ? AND language_id = ? AND skill_id = ?", learnerID, languageID, skillID).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = SkillRating{
		LearnerID:  learnerID,
		LanguageID: languageID,
		SkillID:    skillID,
		Rating:     rating.DefaultRating,
		RD:         rating.DefaultRD,
	}
	if err := t.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// ListByLanguage returns all of a learner's skill ratings for a language.
func (r *SkillRatingRepo) ListByLanguage(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, languageID string) ([]SkillRating, error) {
	var out []SkillRating
	err := r.conn(tx).WithContext(ctx).
		Where("learner_id = ? AND language_id = ?", learnerID, languageID).
		Order("skill_id ASC").
		Find(&out).Error
	return out, err
}

// UpdateGuarded writes back a modified rating row only if its version
// is unchanged since the read, bumping the version. Returns
// ErrVersionConflict when another writer got there first.
func (r *SkillRatingRepo) UpdateGuarded(ctx context.Context, tx *gorm.DB, row *SkillRating) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&SkillRating{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"rating":   row.Rating,
			"rd":       row.RD,
			"attempts": row.Attempts,
			"version":  row.Version + 1,
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
