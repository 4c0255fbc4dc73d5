package schedule

import (
	"strings"
	"time"
)

// PatternAllDays is the canonical "taught every day" pattern string.
const PatternAllDays = "All days"

// IsAllDays reports whether pattern means the student is scheduled every day.
func IsAllDays(pattern string) bool {
	switch strings.ToLower(strings.TrimSpace(pattern)) {
	case "all days", "all day", "all", "everyday", "every day":
		return true
	}
	return false
}

// ParsePattern converts a compact day-pattern string into a weekday set.
// Recognized forms: "All days", the named triads "MWF" and "TTS"/"TTH",
// single day names or abbreviations, comma-separated day lists, and bare
// numeric lists (0 or 7 = Sunday). Empty or unrecognized input yields an
// empty set; callers fall back to an all-weekday schedule filtered only by
// the Sunday policy.
func ParsePattern(pattern string) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)

	p := strings.TrimSpace(pattern)
	if p == "" {
		return days
	}

	if IsAllDays(p) {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			days[wd] = true
		}
		return days
	}

	switch strings.ToLower(p) {
	case "mwf":
		days[time.Monday] = true
		days[time.Wednesday] = true
		days[time.Friday] = true
		return days
	case "tts", "tth":
		days[time.Tuesday] = true
		days[time.Thursday] = true
		days[time.Saturday] = true
		return days
	}

	for _, tok := range strings.Split(p, ",") {
		if wd, ok := parseDayToken(strings.TrimSpace(tok)); ok {
			days[wd] = true
		}
	}

	return days
}

func parseDayToken(tok string) (time.Weekday, bool) {
	switch strings.ToLower(tok) {
	case "sun", "sunday", "0", "7":
		return time.Sunday, true
	case "mon", "monday", "1":
		return time.Monday, true
	case "tue", "tues", "tuesday", "2":
		return time.Tuesday, true
	case "wed", "wednesday", "3":
		return time.Wednesday, true
	case "thu", "thur", "thurs", "thursday", "4":
		return time.Thursday, true
	case "fri", "friday", "5":
		return time.Friday, true
	case "sat", "saturday", "6":
		return time.Saturday, true
	}
	return time.Sunday, false
}

// Expand lists every calendar date in [from, to] on which a student with the
// given pattern is expected to be taught, sorted ascending.
//
// Sunday handling: for "All days" (and for an empty/unrecognized pattern,
// which falls back to every day) Sunday is included only when includeSunday
// is true. An explicit pattern includes Sunday only when the pattern itself
// lists it; the global policy does not override an explicit pattern.
func Expand(from, to time.Time, pattern string, includeSunday bool) []time.Time {
	from = DateOnly(from)
	to = DateOnly(to)
	if to.Before(from) {
		return nil
	}

	allDays := IsAllDays(pattern)
	parsed := ParsePattern(pattern)
	fallback := len(parsed) == 0

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()

		if allDays || fallback {
			if wd == time.Sunday && !includeSunday {
				continue
			}
			dates = append(dates, d)
			continue
		}

		if parsed[wd] {
			dates = append(dates, d)
		}
	}

	return dates
}

// TeachingDaysInMonth counts the expected teaching days between monthStart
// and monthEnd for the given pattern. It is the divisor for the per-student
// daily rate, so two students on different patterns have different daily
// rates even on the same package.
func TeachingDaysInMonth(monthStart, monthEnd time.Time, pattern string, includeSunday bool) int {
	return len(Expand(monthStart, monthEnd, pattern, includeSunday))
}

// MonthBounds returns the first and last day of the month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// DateOnly truncates t to a calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidDate reports whether (year, month, day) names a real calendar date.
// time.Date silently normalizes out-of-range days (Feb 30 becomes Mar 2), so
// the check constructs the date and verifies it round-trips unchanged.
func ValidDate(year int, month time.Month, day int) bool {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	y2, m2, d2 := d.Date()
	return y2 == year && m2 == month && d2 == day
}
