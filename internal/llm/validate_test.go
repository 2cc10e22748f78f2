package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func evaluationTestSchema() *Schema {
	return &Schema{
		Name:        "turn_evaluation_test",
		Description: "Tutor reply plus per-criterion scores for one learner turn.",
		Definition: map[string]any{
			"type":                 "object",
			"required":             []any{"reply", "evaluation"},
			"additionalProperties": false,
			"properties": map[string]any{
				"reply": map[string]any{"type": "string"},
				"evaluation": map[string]any{
					"type":                 "object",
					"required":             []any{"grammar_accuracy", "lexical_complexity", "fluency", "register"},
					"additionalProperties": false,
					"properties": map[string]any{
						"grammar_accuracy":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"lexical_complexity": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"fluency":            map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"register":           map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
				},
			},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	schema := evaluationTestSchema()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid evaluation",
			raw: `{"reply":"Sehr gut!","evaluation":{
				"grammar_accuracy":0.8,"lexical_complexity":0.6,
				"fluency":0.7,"register":0.9}}`,
		},
		{
			name:    "missing reply",
			raw:     `{"evaluation":{"grammar_accuracy":0.8,"lexical_complexity":0.6,"fluency":0.7,"register":0.9}}`,
			wantErr: true,
		},
		{
			name:    "missing criterion",
			raw:     `{"reply":"ok","evaluation":{"grammar_accuracy":0.8}}`,
			wantErr: true,
		},
		{
			name:    "score out of range",
			raw:     `{"reply":"ok","evaluation":{"grammar_accuracy":1.5,"lexical_complexity":0.6,"fluency":0.7,"register":0.9}}`,
			wantErr: true,
		},
		{
			name:    "score wrong type",
			raw:     `{"reply":"ok","evaluation":{"grammar_accuracy":"high","lexical_complexity":0.6,"fluency":0.7,"register":0.9}}`,
			wantErr: true,
		},
		{
			name:    "unexpected field",
			raw:     `{"reply":"ok","extra":1,"evaluation":{"grammar_accuracy":0.8,"lexical_complexity":0.6,"fluency":0.7,"register":0.9}}`,
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			raw:     `{"reply":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(schema, json.RawMessage(tt.raw))
			if tt.wantErr {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateResponseNilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("nil schema should skip validation, got: %v", err)
	}
}

func TestSchemaCompilationCached(t *testing.T) {
	schema := evaluationTestSchema()

	first, err := getCompiledSchema(schema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := getCompiledSchema(schema)
	if err != nil {
		t.Fatalf("compile (cached): %v", err)
	}
	if first != second {
		t.Error("expected cached schema instance on second lookup")
	}
}
