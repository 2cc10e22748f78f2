package dialogue

import "github.com/lingualoop/lingualoop/internal/llm"

// TurnSchema defines the structured output for a dialogue turn: a
// conversational reply plus four bounded evaluation scores. The
// evaluation criteria are individually optional; missing scores are
// defaulted at parse time.
var TurnSchema = &llm.Schema{
	Name:        "dialogue-turn",
	Description: "Conversational reply plus per-criterion evaluation of the learner's last message",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reply": map[string]any{
				"type":        "string",
				"description": "The tutor's next conversational message, in the target language",
			},
			"evaluation": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"grammar_accuracy": map[string]any{
						"type":        "number",
						"minimum":     0.0,
						"maximum":     1.0,
						"description": "Grammatical correctness of the learner's message",
					},
					"lexical_complexity": map[string]any{
						"type":        "number",
						"minimum":     0.0,
						"maximum":     1.0,
						"description": "Richness and precision of vocabulary used",
					},
					"fluency": map[string]any{
						"type":        "number",
						"minimum":     0.0,
						"maximum":     1.0,
						"description": "Naturalness and flow of the message",
					},
					"register": map[string]any{
						"type":        "number",
						"minimum":     0.0,
						"maximum":     1.0,
						"description": "Appropriateness of tone and formality for the scenario",
					},
				},
				"additionalProperties": false,
			},
			"corrections": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Short corrections of errors in the learner's message, if any",
			},
		},
		"required":             []any{"reply", "evaluation"},
		"additionalProperties": false,
	},
}
