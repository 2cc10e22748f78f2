package rating

import "time"

// NextStreak advances a calendar-day activity streak. Activity on the
// same day leaves the streak unchanged, activity on the day after the
// last active day increments it, and any longer gap (or no prior
// activity) resets it to 1. Days are compared in UTC.
func NextStreak(current int, lastActive *time.Time, now time.Time) int {
	if current < 1 {
		current = 0
	}
	if lastActive == nil {
		return 1
	}

	last := lastActive.UTC()
	today := dayOf(now.UTC())
	lastDay := dayOf(last)

	switch {
	case lastDay.Equal(today):
		if current == 0 {
			return 1
		}
		return current
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
