package dialogue

import (
	"encoding/json"
	"fmt"

	"github.com/lingualoop/lingualoop/internal/rating"
)

// Scores are the four bounded evaluation criteria returned by the
// gateway for one learner turn. All values are in [0,1].
type Scores struct {
	GrammarAccuracy   float64 `json:"grammar_accuracy"`
	LexicalComplexity float64 `json:"lexical_complexity"`
	Fluency           float64 `json:"fluency"`
	Register          float64 `json:"register"`
}

// Composite collapses the four criteria into one turn score:
// 0.3·grammar + 0.2·lexical + 0.3·fluency + 0.2·register.
func (s Scores) Composite() float64 {
	return 0.3*s.GrammarAccuracy + 0.2*s.LexicalComplexity + 0.3*s.Fluency + 0.2*s.Register
}

// Evaluation is the recorded result of one turn: the criteria, the
// composite, and any corrections the tutor offered.
type Evaluation struct {
	Scores
	CompositeScore float64  `json:"compositeScore"`
	Corrections    []string `json:"corrections,omitempty"`
}

// turnPayload is the raw structured output of a dialogue turn. Score
// fields are pointers so an omitted criterion is distinguishable from
// an explicit zero.
type turnPayload struct {
	Reply      string `json:"reply"`
	Evaluation struct {
		GrammarAccuracy   *float64 `json:"grammar_accuracy"`
		LexicalComplexity *float64 `json:"lexical_complexity"`
		Fluency           *float64 `json:"fluency"`
		Register          *float64 `json:"register"`
	} `json:"evaluation"`
	Corrections []string `json:"corrections"`
}

// neutralScore stands in for any criterion the gateway omitted. The
// evaluation contract is best-effort; a missing score must not fail a
// turn that still produced a reply.
const neutralScore = 0.5

// parseTurn decodes a structured turn response leniently: missing
// criteria default to neutral, out-of-range values are clamped.
func parseTurn(raw json.RawMessage) (string, Evaluation, error) {
	var p turnPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", Evaluation{}, fmt.Errorf("parse turn response: %w", err)
	}
	if p.Reply == "" {
		return "", Evaluation{}, fmt.Errorf("turn response has no reply")
	}

	scores := Scores{
		GrammarAccuracy:   scoreOrNeutral(p.Evaluation.GrammarAccuracy),
		LexicalComplexity: scoreOrNeutral(p.Evaluation.LexicalComplexity),
		Fluency:           scoreOrNeutral(p.Evaluation.Fluency),
		Register:          scoreOrNeutral(p.Evaluation.Register),
	}

	return p.Reply, Evaluation{
		Scores:         scores,
		CompositeScore: scores.Composite(),
		Corrections:    p.Corrections,
	}, nil
}

func scoreOrNeutral(v *float64) float64 {
	if v == nil {
		return neutralScore
	}
	return rating.ClampScore(*v)
}
