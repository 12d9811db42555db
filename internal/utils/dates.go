package utils

import "time"

// NormalizeDate truncates a timestamp to its calendar day in UTC.
// Reservations have whole-day granularity.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInSpan returns the number of days in [from, to], both ends included.
func DaysInSpan(from, to time.Time) int {
	from = NormalizeDate(from)
	to = NormalizeDate(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// EachDay calls fn once per calendar day in [from, to], both ends included.
func EachDay(from, to time.Time, fn func(day time.Time)) {
	from = NormalizeDate(from)
	to = NormalizeDate(to)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

// Overlaps reports whether the inclusive day ranges [aFrom, aTo] and
// [bFrom, bTo] share at least one day. Overlap is symmetric in its arguments.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return !NormalizeDate(aFrom).After(NormalizeDate(bTo)) &&
		!NormalizeDate(aTo).Before(NormalizeDate(bFrom))
}
