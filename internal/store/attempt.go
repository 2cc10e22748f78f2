package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptRepo appends immutable attempt log records. There is no update
// path on purpose.
type AttemptRepo struct {
	db *gorm.DB
}

func (r *AttemptRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Append inserts one attempt record. Returns ErrDuplicateKey if the
// learner already recorded an attempt with the same idempotency key.
func (r *AttemptRepo) Append(ctx context.Context, tx *gorm.DB, row *Attempt) error {
	return translate(r.conn(tx).WithContext(ctx).Create(row).Error)
}

// FindByIdempotencyKey returns a previously recorded attempt for the
// learner and key, or (nil, nil) if none exists.
func (r *AttemptRepo) FindByIdempotencyKey(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, key string) (*Attempt, error) {
	var row Attempt
	err := r.conn(tx).WithContext(ctx).
		Where("learner_id = ? AND idempotency_key = ?", learnerID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRecent returns the learner's most recent attempts, newest first.
func (r *AttemptRepo) ListRecent(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]Attempt, error) {
	var out []Attempt
	q := r.conn(tx).WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
