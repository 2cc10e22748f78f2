package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScenarioRepo reads scenarios and maintains per-learner progress.
type ScenarioRepo struct {
	db *gorm.DB
}

func (r *ScenarioRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Get returns the scenario by id.
func (r *ScenarioRepo) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Scenario, error) {
	var row Scenario
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// Create inserts a scenario (seeding/authoring path).
func (r *ScenarioRepo) Create(ctx context.Context, tx *gorm.DB, row *Scenario) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return translate(r.conn(tx).WithContext(ctx).Create(row).Error)
}

// GetOrCreateProgress loads the learner's progress row for a scenario,
// creating it with only the first mode unlocked.
func (r *ScenarioRepo) GetOrCreateProgress(ctx context.Context, tx *gorm.DB, learnerID, scenarioID uuid.UUID, firstMode string) (*ScenarioProgress, error) {
	t := r.conn(tx)

	var row ScenarioProgress
	err := t.WithContext(ctx).
		Where("learner_id = ? AND scenario_id = ?", learnerID, scenarioID).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = ScenarioProgress{
		LearnerID:    learnerID,
		ScenarioID:   scenarioID,
		ModeUnlocked: firstMode,
	}
	if err := t.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// UpdateProgressGuarded writes back progress under a version guard.
func (r *ScenarioRepo) UpdateProgressGuarded(ctx context.Context, tx *gorm.DB, row *ScenarioProgress) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&ScenarioProgress{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"attempts":             row.Attempts,
			"best_score":           row.BestScore,
			"controlled_completed": row.ControlledCompleted,
			"guided_completed":     row.GuidedCompleted,
			"open_completed":       row.OpenCompleted,
			"mode_unlocked":        row.ModeUnlocked,
			"version":              row.Version + 1,
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
