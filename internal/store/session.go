package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepo persists dialogue sessions.
type SessionRepo struct {
	db *gorm.DB
}

func (r *SessionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a new session in the Active state.
func (r *SessionRepo) Create(ctx context.Context, tx *gorm.DB, row *DialogueSession) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return translate(r.conn(tx).WithContext(ctx).Create(row).Error)
}

// Get returns the session by id.
func (r *SessionRepo) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*DialogueSession, error) {
	var row DialogueSession
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// UpdateGuarded writes back turn or completion state under a version
// guard; the session's history is only ever extended, never rewritten.
func (r *SessionRepo) UpdateGuarded(ctx context.Context, tx *gorm.DB, row *DialogueSession) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&DialogueSession{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"state":           row.State,
			"messages":        row.Messages,
			"last_evaluation": row.LastEvaluation,
			"skill_deltas":    row.SkillDeltas,
			"composite_sum":   row.CompositeSum,
			"composite_count": row.CompositeCount,
			"completed_at":    row.CompletedAt,
			"version":         row.Version + 1,
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
