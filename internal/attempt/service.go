// Package attempt processes discrete exercise attempts: scoring, the
// Elo update for the exercise's skill, the inverse difficulty drift,
// the profile aggregate, and the immutable attempt log, all in one
// transaction.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lingualoop/lingualoop/internal/rating"
	"github.com/lingualoop/lingualoop/internal/store"
)

// ErrValidation marks a malformed submission. Nothing is persisted.
var ErrValidation = errors.New("invalid attempt input")

// txRetries bounds transparent retries on version conflicts.
const txRetries = 3

// Service is the attempt processor.
type Service struct {
	st  *store.Store
	log *zap.Logger
}

// NewService wires the attempt processor.
func NewService(st *store.Store, log *zap.Logger) *Service {
	return &Service{st: st, log: log}
}

// Submit processes one attempt. The full set of updates (skill rating,
// exercise difficulty, profile, attempt record) lands atomically or not
// at all; a resubmitted idempotency key returns the recorded result.
func (s *Service) Submit(ctx context.Context, learnerID uuid.UUID, in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	// A replayed submission short-circuits before any computation.
	if prior, err := s.st.Attempts().FindByIdempotencyKey(ctx, nil, learnerID, in.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	} else if prior != nil {
		return s.recordedResult(ctx, learnerID, prior)
	}

	exercise, err := s.st.Exercises().GetActive(ctx, nil, in.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("load exercise: %w", err)
	}

	scoreRaw, err := score(exercise, in)
	if err != nil {
		return nil, err
	}
	limit := 0
	if exercise.TimeLimitSeconds != nil {
		limit = *exercise.TimeLimitSeconds
	}
	adjusted := rating.TimeBonus(scoreRaw, in.TimeSpentSeconds, limit)
	passed := adjusted >= rating.PassThreshold

	bands, err := s.st.Bands().ForLanguage(ctx, exercise.LanguageID)
	if err != nil {
		return nil, fmt.Errorf("load cefr bands: %w", err)
	}

	var result Result
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		ex, err := s.st.Exercises().GetActive(ctx, tx, in.ExerciseID)
		if err != nil {
			return err
		}

		row, err := s.st.SkillRatings().GetOrCreate(ctx, tx, learnerID, ex.LanguageID, ex.SkillID)
		if err != nil {
			return err
		}

		expected := rating.ExpectedScore(row.Rating, ex.DifficultyRating)
		k := rating.KFactor(row.RD, row.Attempts, row.Rating)
		newRating := rating.UpdateRating(row.Rating, k, adjusted, expected)
		newRD := rating.DecayRD(row.RD)

		// The exercise competes against the learner: damped K, inverse
		// actual, so difficulty rises when learners succeed.
		exExpected := rating.ExpectedScore(ex.DifficultyRating, row.Rating)
		newDifficulty := rating.UpdateRating(ex.DifficultyRating, rating.ExerciseK(k), 1-adjusted, exExpected)

		record := store.Attempt{
			LearnerID:        learnerID,
			IdempotencyKey:   in.IdempotencyKey,
			ExerciseID:       ex.ID,
			LanguageID:       ex.LanguageID,
			SkillID:          ex.SkillID,
			ScoreRaw:         scoreRaw,
			ScoreAdjusted:    adjusted,
			ExpectedScore:    expected,
			KFactorUsed:      k,
			EloBefore:        row.Rating,
			EloAfter:         newRating,
			RDBefore:         row.RD,
			RDAfter:          newRD,
			DifficultyBefore: ex.DifficultyRating,
			DifficultyAfter:  newDifficulty,
			TimeSpentSeconds: in.TimeSpentSeconds,
			Passed:           passed,
		}

		row.Rating = newRating
		row.RD = newRD
		row.Attempts++
		if err := s.st.SkillRatings().UpdateGuarded(ctx, tx, row); err != nil {
			return err
		}

		ex.DifficultyRating = newDifficulty
		if err := s.st.Exercises().UpdateDifficultyGuarded(ctx, tx, ex); err != nil {
			return err
		}

		profile, err := s.st.Profiles().GetOrCreate(ctx, tx, learnerID, ex.LanguageID, bands)
		if err != nil {
			return err
		}
		previousCefr := profile.OverallCEFR

		rows, err := s.st.SkillRatings().ListByLanguage(ctx, tx, learnerID, ex.LanguageID)
		if err != nil {
			return err
		}
		overall := rating.Aggregate(lo.Map(rows, func(r store.SkillRating, _ int) rating.SkillSnapshot {
			return rating.SkillSnapshot{SkillID: r.SkillID, Rating: r.Rating, RD: r.RD, Attempts: r.Attempts}
		}), bands)

		now := time.Now().UTC()
		profile.OverallRating = overall.Rating
		profile.OverallRD = overall.RD
		profile.OverallCEFR = overall.CEFR
		profile.TotalAttempts = overall.TotalAttempts
		profile.StreakCount = rating.NextStreak(profile.StreakCount, profile.LastActiveAt, now)
		profile.LastActiveAt = &now
		if err := s.st.Profiles().UpdateGuarded(ctx, tx, profile); err != nil {
			return err
		}

		if err := s.st.Attempts().Append(ctx, tx, &record); err != nil {
			return err
		}

		result = Result{
			SkillID:          ex.SkillID,
			EloBefore:        record.EloBefore,
			EloAfter:         record.EloAfter,
			RDAfter:          record.RDAfter,
			ExpectedScore:    expected,
			ScoreRaw:         scoreRaw,
			ScoreAdjusted:    adjusted,
			Passed:           passed,
			DifficultyBefore: record.DifficultyBefore,
			DifficultyAfter:  record.DifficultyAfter,
			OverallElo:       overall.Rating,
			OverallCefr:      overall.CEFR,
			PreviousCefr:     previousCefr,
			StreakCount:      profile.StreakCount,
		}
		return nil
	})
	if err != nil {
		// Two submissions with the same key raced past the pre-check;
		// the loser reads the winner's record.
		if errors.Is(err, store.ErrDuplicateKey) {
			if prior, ferr := s.st.Attempts().FindByIdempotencyKey(ctx, nil, learnerID, in.IdempotencyKey); ferr == nil && prior != nil {
				return s.recordedResult(ctx, learnerID, prior)
			}
		}
		return nil, err
	}

	s.log.Info("attempt processed",
		zap.String("exercise_id", in.ExerciseID.String()),
		zap.String("skill", result.SkillID),
		zap.Int("elo_before", result.EloBefore),
		zap.Int("elo_after", result.EloAfter),
		zap.Bool("passed", result.Passed))

	return &result, nil
}

func validate(in Input) error {
	if in.ExerciseID == uuid.Nil {
		return fmt.Errorf("%w: exerciseId is required", ErrValidation)
	}
	if (in.AnswerIndex == nil) == (in.ScoreRaw == nil) {
		return fmt.Errorf("%w: exactly one of answerIndex and scoreRaw is required", ErrValidation)
	}
	if in.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotencyKey is required", ErrValidation)
	}
	if in.TimeSpentSeconds < 0 {
		return fmt.Errorf("%w: timeSpentSeconds must not be negative", ErrValidation)
	}
	return nil
}

// score computes the raw score: exact match for choice exercises, the
// clamped caller score for everything else.
func score(ex *store.Exercise, in Input) (float64, error) {
	if ex.Type == store.ExerciseTypeChoice {
		if in.AnswerIndex == nil {
			return 0, fmt.Errorf("%w: choice exercise requires answerIndex", ErrValidation)
		}
		if ex.CorrectIndex != nil && *in.AnswerIndex == *ex.CorrectIndex {
			return 1, nil
		}
		return 0, nil
	}
	if in.ScoreRaw == nil {
		return 0, fmt.Errorf("%w: %s exercise requires scoreRaw", ErrValidation, ex.Type)
	}
	return rating.ClampScore(*in.ScoreRaw), nil
}

// recordedResult rebuilds the caller-visible result from a previously
// logged attempt. Ratings do not move again.
func (s *Service) recordedResult(ctx context.Context, learnerID uuid.UUID, prior *store.Attempt) (*Result, error) {
	bands, err := s.st.Bands().ForLanguage(ctx, prior.LanguageID)
	if err != nil {
		return nil, fmt.Errorf("load cefr bands: %w", err)
	}
	profile, err := s.st.Profiles().GetOrCreate(ctx, nil, learnerID, prior.LanguageID, bands)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	s.log.Info("attempt replayed",
		zap.String("exercise_id", prior.ExerciseID.String()),
		zap.String("idempotency_key", prior.IdempotencyKey))

	return &Result{
		SkillID:          prior.SkillID,
		EloBefore:        prior.EloBefore,
		EloAfter:         prior.EloAfter,
		RDAfter:          prior.RDAfter,
		ExpectedScore:    prior.ExpectedScore,
		ScoreRaw:         prior.ScoreRaw,
		ScoreAdjusted:    prior.ScoreAdjusted,
		Passed:           prior.Passed,
		DifficultyBefore: prior.DifficultyBefore,
		DifficultyAfter:  prior.DifficultyAfter,
		OverallElo:       profile.OverallRating,
		OverallCefr:      profile.OverallCEFR,
		PreviousCefr:     profile.OverallCEFR,
		StreakCount:      profile.StreakCount,
		Duplicate:        true,
	}, nil
}

// inTx runs fn in a transaction, transparently retrying version
// conflicts. fn re-reads all guarded rows so a retry starts fresh.
func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for range txRetries {
		err = s.st.WithinTx(ctx, fn)
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
	}
	return err
}
