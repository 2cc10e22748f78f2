package dialogue

import (
	"encoding/json"
	"math"
	"testing"
)

func TestComposite(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   float64
	}{
		{
			name:   "uniform scores",
			scores: Scores{GrammarAccuracy: 0.8, LexicalComplexity: 0.8, Fluency: 0.8, Register: 0.8},
			want:   0.8,
		},
		{
			name:   "weighted mix",
			scores: Scores{GrammarAccuracy: 1.0, LexicalComplexity: 0.0, Fluency: 1.0, Register: 0.0},
			want:   0.6,
		},
		{
			name:   "all zero",
			scores: Scores{},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scores.Composite(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Composite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTurn(t *testing.T) {
	raw := json.RawMessage(`{
		"reply": "Sehr gut!",
		"evaluation": {
			"grammar_accuracy": 0.9,
			"lexical_complexity": 0.7,
			"fluency": 0.8,
			"register": 0.6
		},
		"corrections": ["der Tisch, not die Tisch"]
	}`)

	reply, eval, err := parseTurn(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Sehr gut!" {
		t.Errorf("reply = %q", reply)
	}
	if eval.GrammarAccuracy != 0.9 || eval.Fluency != 0.8 {
		t.Errorf("unexpected scores: %+v", eval.Scores)
	}
	if len(eval.Corrections) != 1 {
		t.Errorf("corrections = %v", eval.Corrections)
	}
}

func TestParseTurnMissingCriteriaDefaultToNeutral(t *testing.T) {
	raw := json.RawMessage(`{"reply":"ok","evaluation":{"grammar_accuracy":0.9}}`)

	_, eval, err := parseTurn(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.GrammarAccuracy != 0.9 {
		t.Errorf("grammar = %v, want 0.9", eval.GrammarAccuracy)
	}
	for name, got := range map[string]float64{
		"lexical":  eval.LexicalComplexity,
		"fluency":  eval.Fluency,
		"register": eval.Register,
	} {
		if got != neutralScore {
			t.Errorf("%s = %v, want neutral %v", name, got, neutralScore)
		}
	}
}

func TestParseTurnClampsOutOfRangeScores(t *testing.T) {
	raw := json.RawMessage(`{"reply":"ok","evaluation":{
		"grammar_accuracy": 1.7,
		"lexical_complexity": -0.3,
		"fluency": 0.5,
		"register": 0.5
	}}`)

	_, eval, err := parseTurn(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.GrammarAccuracy != 1.0 {
		t.Errorf("grammar = %v, want clamped 1.0", eval.GrammarAccuracy)
	}
	if eval.LexicalComplexity != 0.0 {
		t.Errorf("lexical = %v, want clamped 0.0", eval.LexicalComplexity)
	}
}

func TestParseTurnErrors(t *testing.T) {
	if _, _, err := parseTurn(json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, _, err := parseTurn(json.RawMessage(`{"evaluation":{}}`)); err == nil {
		t.Error("expected error for missing reply")
	}
}

func TestSkillActualCriteriaMapping(t *testing.T) {
	s := Scores{GrammarAccuracy: 0.8, LexicalComplexity: 0.4, Fluency: 0.6, Register: 1.0}

	tests := []struct {
		skill string
		want  float64
	}{
		{SkillWriting, 0.6},  // (grammar + lexical) / 2
		{SkillSpeaking, 0.8}, // (fluency + register) / 2
		{SkillReading, 0.4},  // lexical
		{SkillGrammar, 0.8},  // grammar
	}
	for _, tt := range tests {
		got, ok := skillActual(tt.skill, s)
		if !ok {
			t.Fatalf("skillActual(%s) not applicable", tt.skill)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("skillActual(%s) = %v, want %v", tt.skill, got, tt.want)
		}
	}

	if _, ok := skillActual("listening", s); ok {
		t.Error("unknown skill should not be applicable")
	}
}
