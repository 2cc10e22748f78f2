package rating

import (
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	sameDayEarlier := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	threeDaysAgo := now.AddDate(0, 0, -3)

	tests := []struct {
		name    string
		current int
		last    *time.Time
		want    int
	}{
		{"first ever activity", 0, nil, 1},
		{"same day unchanged", 4, &sameDayEarlier, 4},
		{"yesterday increments", 4, &yesterday, 5},
		{"gap resets", 9, &threeDaysAgo, 1},
		{"same day with zero streak", 0, &sameDayEarlier, 1},
	}

	for _, tt := range tests {
		if got := NextStreak(tt.current, tt.last, now); got != tt.want {
			t.Errorf("%s: NextStreak(%d) = %d, want %d", tt.name, tt.current, got, tt.want)
		}
	}
}

func TestNextStreakCrossesMidnight(t *testing.T) {
	// 23:59 yesterday to 00:01 today is still "yesterday -> today".
	last := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)

	if got := NextStreak(2, &last, now); got != 3 {
		t.Errorf("NextStreak across midnight = %d, want 3", got)
	}
}
