package utils

import "time"

func GetMinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}

	return b
}

func GetMaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}

// FloorTime truncates t to a multiple of d counted from midnight in t's own
// location, so that quarter hours line up with the local wall clock.
func FloorTime(t time.Time, d time.Duration) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	elapsed := t.Sub(midnight)
	return midnight.Add(elapsed - elapsed%d)
}

func CeilTime(t time.Time, d time.Duration) time.Time {
	floor := FloorTime(t, d)
	if floor.Equal(t) {
		return t
	}

	return floor.Add(d)
}

// PeriodEnd stamps a bar that starts at t with the end of its period.
func PeriodEnd(t time.Time, d time.Duration) time.Time {
	return FloorTime(t, d).Add(d)
}
