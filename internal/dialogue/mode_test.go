package dialogue

import "testing"

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"controlled", "guided", "open"} {
		if _, err := ParseMode(valid); err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", valid, err)
		}
	}
	if _, err := ParseMode("freestyle"); err == nil {
		t.Error("ParseMode(freestyle) expected error")
	}
	if _, err := ParseMode(""); err == nil {
		t.Error("ParseMode(empty) expected error")
	}
}

func TestModeMultiplier(t *testing.T) {
	tests := []struct {
		mode Mode
		want float64
	}{
		{ModeControlled, 0.5},
		{ModeGuided, 0.75},
		{ModeOpen, 1.0},
	}
	for _, tt := range tests {
		if got := tt.mode.Multiplier(); got != tt.want {
			t.Errorf("%s.Multiplier() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestModeNext(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeControlled, ModeGuided},
		{ModeGuided, ModeOpen},
		{ModeOpen, ModeOpen}, // terminal
	}
	for _, tt := range tests {
		if got := tt.mode.Next(); got != tt.want {
			t.Errorf("%s.Next() = %s, want %s", tt.mode, got, tt.want)
		}
	}
}

func TestModeUnlockedBy(t *testing.T) {
	tests := []struct {
		mode     Mode
		unlocked Mode
		want     bool
	}{
		{ModeControlled, ModeControlled, true},
		{ModeGuided, ModeControlled, false},
		{ModeOpen, ModeControlled, false},
		{ModeGuided, ModeGuided, true},
		{ModeControlled, ModeOpen, true},
		{ModeOpen, ModeOpen, true},
	}
	for _, tt := range tests {
		if got := tt.mode.UnlockedBy(tt.unlocked); got != tt.want {
			t.Errorf("%s.UnlockedBy(%s) = %v, want %v", tt.mode, tt.unlocked, got, tt.want)
		}
	}
}

func TestMaxModeNeverRegresses(t *testing.T) {
	if got := MaxMode(ModeOpen, ModeGuided); got != ModeOpen {
		t.Errorf("MaxMode(open, guided) = %s, want open", got)
	}
	if got := MaxMode(ModeControlled, ModeGuided); got != ModeGuided {
		t.Errorf("MaxMode(controlled, guided) = %s, want guided", got)
	}
}
