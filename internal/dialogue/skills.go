package dialogue

// Core skills tracked per learner-language pair. Dialogue turns update
// the subset whose mapped evaluation criteria apply.
const (
	SkillWriting  = "writing"
	SkillSpeaking = "speaking"
	SkillReading  = "reading"
	SkillGrammar  = "grammar"
)

// CoreSkills is the fixed skill set seeded into dialogue difficulty.
var CoreSkills = []string{SkillGrammar, SkillReading, SkillSpeaking, SkillWriting}

// skillActual maps a skill to the average of its relevant evaluation
// criteria:
//
//	writing  ← grammar accuracy, lexical complexity
//	speaking ← fluency, register
//	reading  ← lexical complexity
//	grammar  ← grammar accuracy
func skillActual(skill string, s Scores) (float64, bool) {
	switch skill {
	case SkillWriting:
		return (s.GrammarAccuracy + s.LexicalComplexity) / 2, true
	case SkillSpeaking:
		return (s.Fluency + s.Register) / 2, true
	case SkillReading:
		return s.LexicalComplexity, true
	case SkillGrammar:
		return s.GrammarAccuracy, true
	}
	return 0, false
}
