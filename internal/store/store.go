// Package store provides GORM-backed persistence for ratings, profiles,
// exercises, attempts, dialogue sessions, and scenario progress.
// Multi-entity mutations run inside a single transaction; hot rows carry
// a version column for optimistic concurrency.
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config selects the database driver and connection.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	// DSN is the connection string (postgres URL or sqlite file path;
	// ":memory:" for an in-memory sqlite database).
	DSN string
}

// Store holds the gorm handle and provides access to repositories.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and runs auto-migration.
func Open(cfg Config) (*Store, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the schema and seeds the default CEFR
// bands if none exist.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&SkillRating{},
		&LanguageProfile{},
		&Exercise{},
		&Attempt{},
		&DialogueSession{},
		&Scenario{},
		&ScenarioProgress{},
		&CefrBand{},
		&LLMRequestEvent{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return s.seedDefaultBands(ctx)
}

func (s *Store) seedDefaultBands(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&CefrBand{}).Where("language_id = ''").Count(&count).Error; err != nil {
		return fmt.Errorf("count cefr bands: %w", err)
	}
	if count > 0 {
		return nil
	}
	rows := defaultBandRows()
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed cefr bands: %w", err)
	}
	return nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// WithinTx runs fn inside a single transaction. Every attempt and
// dialogue-turn mutation goes through here so the caller sees
// all-or-nothing persistence.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SkillRatings returns the skill rating repository.
func (s *Store) SkillRatings() *SkillRatingRepo { return &SkillRatingRepo{db: s.db} }

// Profiles returns the language profile repository.
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{db: s.db} }

// Exercises returns the exercise repository.
func (s *Store) Exercises() *ExerciseRepo { return &ExerciseRepo{db: s.db} }

// Attempts returns the attempt log repository.
func (s *Store) Attempts() *AttemptRepo { return &AttemptRepo{db: s.db} }

// Sessions returns the dialogue session repository.
func (s *Store) Sessions() *SessionRepo { return &SessionRepo{db: s.db} }

// Scenarios returns the scenario and scenario-progress repository.
func (s *Store) Scenarios() *ScenarioRepo { return &ScenarioRepo{db: s.db} }

// Bands returns the CEFR band repository.
func (s *Store) Bands() *BandRepo { return &BandRepo{db: s.db} }

// Events returns the LLM request event repository.
func (s *Store) Events() *EventRepo { return &EventRepo{db: s.db} }
