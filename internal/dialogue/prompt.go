package dialogue

import (
	"bytes"
	"text/template"

	"github.com/lingualoop/lingualoop/internal/store"
)

// promptContext feeds the system prompt template for one session.
type promptContext struct {
	Language        string
	Title           string
	Topic           string
	Description     string
	TargetCEFR      string
	LearnerCEFR     string
	ModeInstruction string
}

var systemTemplate = template.Must(template.New("system").Parse(`You are a friendly conversation partner helping a learner practice {{.Language}}.

Scenario: {{.Title}}{{if .Topic}} ({{.Topic}}){{end}}
{{- if .Description}}
{{.Description}}
{{- end}}
Target level: {{.TargetCEFR}}. The learner is currently around {{.LearnerCEFR}}.

{{.ModeInstruction}}

Stay in character for the scenario and keep the conversation going. When asked for a structured evaluation, score only the learner's most recent message.`))

// modeInstruction returns the scaffolding rules for a mode.
func modeInstruction(m Mode) string {
	switch m {
	case ModeControlled:
		return `Use short, simple sentences well within the target level. Each of your messages should invite one of a small set of predictable replies. Never introduce vocabulary above the target level.`
	case ModeGuided:
		return `Speak naturally at the target level. The learner replies in free text; when they struggle, weave useful vocabulary into your next message as a hint.`
	case ModeOpen:
		return `Speak naturally and idiomatically, as a native speaker at the target level would. Do not simplify your language or offer scaffolding.`
	}
	return ""
}

// buildSystemPrompt renders the session's system context.
func buildSystemPrompt(sc *store.Scenario, mode Mode, learnerCEFR string) (string, error) {
	var buf bytes.Buffer
	err := systemTemplate.Execute(&buf, promptContext{
		Language:        sc.LanguageID,
		Title:           sc.Title,
		Topic:           sc.Topic,
		Description:     sc.Description,
		TargetCEFR:      sc.TargetCEFR,
		LearnerCEFR:     learnerCEFR,
		ModeInstruction: modeInstruction(mode),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// openingInstruction is the user-turn nudge that elicits the first
// tutor message when a session starts.
const openingInstruction = "Open the conversation with a short greeting that sets up the scenario. Reply with the message text only."
