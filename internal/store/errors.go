package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates a version-guarded update lost a race
	// and should be retried with a fresh read.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateKey indicates a unique constraint violation, e.g. an
	// attempt idempotency key that was already recorded.
	ErrDuplicateKey = errors.New("duplicate key")
)

// translate maps gorm errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
