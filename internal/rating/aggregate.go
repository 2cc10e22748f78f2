package rating

import "math"

// SkillSnapshot is the slice of a skill rating the aggregator needs.
type SkillSnapshot struct {
	SkillID  string
	Rating   int
	RD       int
	Attempts int
}

// Overall is the derived learner-language aggregate.
type Overall struct {
	Rating        int
	RD            int
	TotalAttempts int
	CEFR          string
}

// Aggregate computes the attempts-weighted overall rating and RD across
// a learner's skill ratings for one language. Weights are floored at 1
// so a brand-new skill barely moves the aggregate. With no skills at all
// the defaults apply.
func Aggregate(skills []SkillSnapshot, bands []Band) Overall {
	if len(skills) == 0 {
		return Overall{
			Rating: DefaultRating,
			RD:     DefaultRD,
			CEFR:   MapToCEFR(DefaultRating, bands),
		}
	}

	var ratingSum, rdSum, weightSum, attempts float64
	for _, s := range skills {
		w := math.Max(1, float64(s.Attempts))
		ratingSum += float64(s.Rating) * w
		rdSum += float64(s.RD) * w
		weightSum += w
		attempts += float64(s.Attempts)
	}

	overall := int(math.Round(ratingSum / weightSum))
	return Overall{
		Rating:        overall,
		RD:            int(math.Round(rdSum / weightSum)),
		TotalAttempts: int(attempts),
		CEFR:          MapToCEFR(overall, bands),
	}
}
