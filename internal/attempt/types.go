package attempt

import "github.com/google/uuid"

// Input is one exercise attempt submission. Exactly one of AnswerIndex
// and ScoreRaw must be set: choice exercises are scored by exact match,
// everything else takes the caller's raw score. IdempotencyKey is
// client-generated and unique per learner; resubmitting the same key
// returns the recorded result without moving ratings again.
type Input struct {
	ExerciseID       uuid.UUID `json:"exerciseId"`
	AnswerIndex      *int      `json:"answerIndex,omitempty"`
	ScoreRaw         *float64  `json:"scoreRaw,omitempty"`
	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	IdempotencyKey   string    `json:"idempotencyKey"`
}

// Result is the caller-visible outcome of a processed attempt. A CEFR
// level-up is observable as PreviousCefr != OverallCefr.
type Result struct {
	SkillID          string  `json:"skillId"`
	EloBefore        int     `json:"eloBefore"`
	EloAfter         int     `json:"eloAfter"`
	RDAfter          int     `json:"rdAfter"`
	ExpectedScore    float64 `json:"expectedScore"`
	ScoreRaw         float64 `json:"scoreRaw"`
	ScoreAdjusted    float64 `json:"scoreAdjusted"`
	Passed           bool    `json:"passed"`
	DifficultyBefore int     `json:"difficultyEloBefore"`
	DifficultyAfter  int     `json:"difficultyEloAfter"`
	OverallElo       int     `json:"overallElo"`
	OverallCefr      string  `json:"overallCefr"`
	PreviousCefr     string  `json:"previousCefr"`
	StreakCount      int     `json:"streakCount"`
	// Duplicate marks a replayed submission: the result was read back
	// from the attempt log and no rating moved.
	Duplicate bool `json:"duplicate,omitempty"`
}
