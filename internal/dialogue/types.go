package dialogue

import "github.com/google/uuid"

// Message is one entry in a session's conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StartResult is what a freshly started session returns to the caller.
type StartResult struct {
	SessionID uuid.UUID `json:"sessionId"`
	Mode      Mode      `json:"mode"`
	AIMessage string    `json:"aiMessage"`
	// Options are selectable replies, surfaced in controlled mode only.
	Options []string `json:"options,omitempty"`
	// Hints are vocabulary suggestions, surfaced in guided mode only.
	Hints    []string `json:"hints,omitempty"`
	UserCEFR string   `json:"userCefr"`
}

// RespondResult is the outcome of one evaluated turn.
type RespondResult struct {
	AIReply      string         `json:"aiReply"`
	Evaluation   Evaluation     `json:"evaluation"`
	RatingDeltas map[string]int `json:"ratingDeltas"`
	UserCEFR     string         `json:"userCefr"`
}

// CompleteResult reports the progress state after completing a session.
type CompleteResult struct {
	BestScore    float64 `json:"bestScore"`
	ModeUnlocked Mode    `json:"modeUnlocked"`
}
