package dialogue

import "fmt"

// Mode is the scaffolding level of a dialogue session. Modes form a
// total order: controlled < guided < open. Completing a session in one
// mode unlocks the next; unlocks never regress.
type Mode string

const (
	ModeControlled Mode = "controlled"
	ModeGuided     Mode = "guided"
	ModeOpen       Mode = "open"
)

// modeOrder defines the unlock sequence.
var modeOrder = []Mode{ModeControlled, ModeGuided, ModeOpen}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeControlled, ModeGuided, ModeOpen:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown dialogue mode: %q", s)
}

func (m Mode) String() string { return string(m) }

// rank returns the mode's position in the unlock order, -1 if unknown.
func (m Mode) rank() int {
	for i, o := range modeOrder {
		if o == m {
			return i
		}
	}
	return -1
}

// Multiplier scales how strongly a turn's evaluation moves skill
// ratings. Scaffolded practice counts for less than free-form practice.
func (m Mode) Multiplier() float64 {
	switch m {
	case ModeControlled:
		return 0.5
	case ModeGuided:
		return 0.75
	case ModeOpen:
		return 1.0
	}
	return 1.0
}

// Next returns the mode unlocked by completing m. Open is terminal and
// returns itself.
func (m Mode) Next() Mode {
	i := m.rank()
	if i < 0 || i == len(modeOrder)-1 {
		return m
	}
	return modeOrder[i+1]
}

// UnlockedBy reports whether m is playable when the learner's current
// unlock is at most `unlocked`.
func (m Mode) UnlockedBy(unlocked Mode) bool {
	return m.rank() >= 0 && m.rank() <= unlocked.rank()
}

// MaxMode returns the later of two modes in the unlock order.
func MaxMode(a, b Mode) Mode {
	if b.rank() > a.rank() {
		return b
	}
	return a
}
