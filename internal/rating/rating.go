// Package rating implements the Elo-style skill rating math: expected
// score, K-factor selection, rating updates, time bonus, RD decay, and
// CEFR band mapping. All functions are pure; callers own persistence.
package rating

import "math"

const (
	// DefaultRating is the rating assigned to a skill on first contact.
	DefaultRating = 1000

	// DefaultRD is the initial rating deviation (uncertainty).
	DefaultRD = 350

	// DialogueSeedRating seeds dialogue difficulty when a learner has no
	// skill ratings yet for the scenario language.
	DialogueSeedRating = 1200

	// MinRD is the floor for rating deviation.
	MinRD = 50

	// RDDecayStep is subtracted from RD after every rated outcome.
	RDDecayStep = 10

	// HighRDThreshold marks a rating as still uncertain.
	HighRDThreshold = 200

	// ProvisionalAttempts is the attempt count below which a rating is
	// considered provisional.
	ProvisionalAttempts = 20

	// MatureAttempts is the attempt count above which a rating is
	// considered settled.
	MatureAttempts = 100

	// StableRating marks a rating as established regardless of attempts.
	StableRating = 1600

	// MinExerciseK is the floor for the damped exercise-side K-factor.
	MinExerciseK = 5

	// MaxTimeBonus is the largest score boost a fast answer can earn.
	MaxTimeBonus = 0.1

	// PassThreshold is the adjusted score at or above which an attempt
	// counts as passed.
	PassThreshold = 0.6
)

// ExpectedScore returns the probability that a rating of a scores against
// an opponent rated b. ExpectedScore(a,b) + ExpectedScore(b,a) == 1.
func ExpectedScore(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// KFactor selects the update sensitivity for a rating. Uncertain or young
// ratings move fast (40); established ones move slowly (10); everything
// else gets the moderate default (20).
func KFactor(rd, attempts, ratingValue int) int {
	if rd > HighRDThreshold || attempts < ProvisionalAttempts {
		return 40
	}
	if ratingValue >= StableRating || attempts > MatureAttempts {
		return 10
	}
	return 20
}

// UpdateRating applies one observed outcome. actual must be in [0,1].
func UpdateRating(old, k int, actual, expected float64) int {
	return old + int(math.Round(float64(k)*(actual-expected)))
}

// ScaledUpdate is UpdateRating with the delta scaled by a mode
// multiplier. Dialogue turns use this so that scaffolded practice moves
// ratings less than free-form practice with the same scores.
func ScaledUpdate(old, k int, multiplier, actual, expected float64) int {
	return old + int(math.Round(multiplier*float64(k)*(actual-expected)))
}

// ExerciseK dampens the learner-side K for the exercise difficulty
// update so item difficulty drifts slowly.
func ExerciseK(k int) int {
	damped := k / 4
	if damped < MinExerciseK {
		return MinExerciseK
	}
	return damped
}

// DecayRD shrinks the rating deviation after an observed outcome,
// floored at MinRD.
func DecayRD(rd int) int {
	rd -= RDDecayStep
	if rd < MinRD {
		return MinRD
	}
	return rd
}

// TimeBonus rewards finishing under the time limit with up to
// MaxTimeBonus added proportionally to the unused time fraction. The raw
// score is returned unchanged when there is no limit, the limit was
// exceeded, or the answer scored zero; speed alone cannot turn a wrong
// answer into a pass.
func TimeBonus(scoreRaw float64, timeSpentSecs, timeLimitSecs int) float64 {
	if timeLimitSecs <= 0 || timeSpentSecs >= timeLimitSecs || scoreRaw <= 0 {
		return scoreRaw
	}
	unused := 1.0 - float64(timeSpentSecs)/float64(timeLimitSecs)
	bonus := MaxTimeBonus * unused
	return math.Min(1.0, scoreRaw+bonus)
}

// ClampScore confines a raw score to [0,1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
