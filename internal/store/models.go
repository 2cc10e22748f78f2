package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SkillRating is one learner's Elo-style rating for a single skill in a
// single language. Rating and RD are only ever written through the
// rating package's update functions; Version guards concurrent
// read-modify-write cycles.
type SkillRating struct {
	ID         uint      `gorm:"primaryKey"`
	LearnerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_skill_rating_key,priority:1"`
	LanguageID string    `gorm:"size:16;not null;uniqueIndex:idx_skill_rating_key,priority:2"`
	SkillID    string    `gorm:"size:32;not null;uniqueIndex:idx_skill_rating_key,priority:3"`
	Rating     int       `gorm:"not null"`
	RD         int       `gorm:"column:rd;not null"`
	Attempts   int       `gorm:"not null;default:0"`
	Version    int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LanguageProfile is the derived learner-language aggregate plus streak
// state. Recomputed after every attempt and dialogue turn.
type LanguageProfile struct {
	ID            uint      `gorm:"primaryKey"`
	LearnerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_language_profile_key,priority:1"`
	LanguageID    string    `gorm:"size:16;not null;uniqueIndex:idx_language_profile_key,priority:2"`
	OverallRating int       `gorm:"not null"`
	OverallRD     int       `gorm:"column:overall_rd;not null"`
	OverallCEFR   string    `gorm:"column:overall_cefr;size:8;not null"`
	TotalAttempts int       `gorm:"not null;default:0"`
	StreakCount   int       `gorm:"not null;default:0"`
	LastActiveAt  *time.Time
	Version       int64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Exercise types.
const (
	ExerciseTypeChoice = "choice"
	ExerciseTypeFree   = "free"
)

// Exercise is a discrete practice item. DifficultyRating drifts slowly
// via the inverse Elo update as learners attempt it.
type Exercise struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	LanguageID       string         `gorm:"size:16;not null;index"`
	SkillID          string         `gorm:"size:32;not null;index"`
	Type             string         `gorm:"size:16;not null"`
	Prompt           string         `gorm:"type:text;not null"`
	Options          datatypes.JSON `gorm:"type:jsonb"`
	CorrectIndex     *int
	DifficultyRating int  `gorm:"not null"`
	TimeLimitSeconds *int `gorm:""`
	Active           bool `gorm:"not null;default:true"`
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Attempt is the immutable log record of one exercise attempt. Rows are
// append-only; IdempotencyKey is unique per learner so a client retry of
// an already-recorded attempt cannot double-apply rating movement.
type Attempt struct {
	ID               uint      `gorm:"primaryKey"`
	LearnerID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_attempt_idem,priority:1"`
	IdempotencyKey   string    `gorm:"size:64;not null;uniqueIndex:idx_attempt_idem,priority:2"`
	ExerciseID       uuid.UUID `gorm:"type:uuid;not null;index"`
	LanguageID       string    `gorm:"size:16;not null"`
	SkillID          string    `gorm:"size:32;not null"`
	ScoreRaw         float64   `gorm:"not null"`
	ScoreAdjusted    float64   `gorm:"not null"`
	ExpectedScore    float64   `gorm:"not null"`
	KFactorUsed      int       `gorm:"not null"`
	EloBefore        int       `gorm:"not null"`
	EloAfter         int       `gorm:"not null"`
	RDBefore         int       `gorm:"column:rd_before;not null"`
	RDAfter          int       `gorm:"column:rd_after;not null"`
	DifficultyBefore int       `gorm:"not null"`
	DifficultyAfter  int       `gorm:"not null"`
	TimeSpentSeconds int       `gorm:"not null"`
	Passed           bool      `gorm:"not null"`
	CreatedAt        time.Time
}

// Dialogue session states.
const (
	SessionStateActive    = "active"
	SessionStateCompleted = "completed"
)

// DialogueSession is one multi-turn conversation. Messages holds the
// ordered history as JSON; CompositeSum/CompositeCount accumulate the
// per-turn composite scores for the session average.
type DialogueSession struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	LearnerID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	ScenarioID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	LanguageID     string         `gorm:"size:16;not null"`
	Mode           string         `gorm:"size:16;not null"`
	State          string         `gorm:"size:16;not null"`
	Messages       datatypes.JSON `gorm:"type:jsonb"`
	LastEvaluation datatypes.JSON `gorm:"type:jsonb"`
	SkillDeltas    datatypes.JSON `gorm:"type:jsonb"`
	CompositeSum   float64        `gorm:"not null;default:0"`
	CompositeCount int            `gorm:"not null;default:0"`
	CompletedAt    *time.Time
	Version        int64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Scenario is conversation practice content: topic, target level, and
// the scaffolding surfaced in controlled/guided modes.
type Scenario struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	LanguageID     string         `gorm:"size:16;not null;index"`
	Title          string         `gorm:"size:128;not null"`
	Topic          string         `gorm:"size:128"`
	Description    string         `gorm:"type:text"`
	TargetCEFR     string         `gorm:"column:target_cefr;size:8;not null"`
	OpeningOptions datatypes.JSON `gorm:"type:jsonb"`
	Hints          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScenarioProgress tracks a learner's history with one scenario and the
// forward-only mode unlock. Completion flags are never cleared and
// ModeUnlocked never regresses.
type ScenarioProgress struct {
	ID                  uint      `gorm:"primaryKey"`
	LearnerID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scenario_progress_key,priority:1"`
	ScenarioID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_scenario_progress_key,priority:2"`
	Attempts            int       `gorm:"not null;default:0"`
	BestScore           float64   `gorm:"not null;default:0"`
	ControlledCompleted bool      `gorm:"not null;default:false"`
	GuidedCompleted     bool      `gorm:"not null;default:false"`
	OpenCompleted       bool      `gorm:"not null;default:false"`
	ModeUnlocked        string    `gorm:"size:16;not null"`
	Version             int64     `gorm:"not null;default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CefrBand is one configured rating range for a language. Rows with an
// empty LanguageID are the seeded defaults.
type CefrBand struct {
	ID         uint   `gorm:"primaryKey"`
	LanguageID string `gorm:"size:16;index"`
	Level      string `gorm:"size:8;not null"`
	Min        int    `gorm:"not null"`
	Max        int    `gorm:"not null"`
}

// LLMRequestEvent is the audit record for one evaluation-gateway call.
type LLMRequestEvent struct {
	ID           uint   `gorm:"primaryKey"`
	Provider     string `gorm:"size:32"`
	Model        string `gorm:"size:64"`
	Purpose      string `gorm:"size:32;index"`
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string `gorm:"type:text"`
	CreatedAt    time.Time
}
