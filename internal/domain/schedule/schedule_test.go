package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParsePattern_NamedForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		want    []time.Weekday
	}{
		{"all days", "All days", []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}},
		{"mwf triad", "MWF", []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"tts triad", "TTS", []time.Weekday{time.Tuesday, time.Thursday, time.Saturday}},
		{"tth triad", "TTH", []time.Weekday{time.Tuesday, time.Thursday, time.Saturday}},
		{"single day name", "Sunday", []time.Weekday{time.Sunday}},
		{"single abbreviation", "wed", []time.Weekday{time.Wednesday}},
		{"comma list", "Mon, Wed, Fri", []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"numeric list", "1,3,5", []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"seven is sunday", "7", []time.Weekday{time.Sunday}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParsePattern(tt.pattern)
			assert.Len(t, got, len(tt.want))
			for _, wd := range tt.want {
				assert.True(t, got[wd], "expected %s in set", wd)
			}
		})
	}
}

func TestParsePattern_UnrecognizedYieldsEmptySet(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ParsePattern(""))
	assert.Empty(t, ParsePattern("   "))
	assert.Empty(t, ParsePattern("whenever"))
}

func TestExpand_ExplicitPattern(t *testing.T) {
	t.Parallel()

	// 2025-03-03 is a Monday.
	got := Expand(date(2025, time.March, 3), date(2025, time.March, 9), "MWF", true)
	require.Len(t, got, 3)
	assert.Equal(t, date(2025, time.March, 3), got[0])
	assert.Equal(t, date(2025, time.March, 5), got[1])
	assert.Equal(t, date(2025, time.March, 7), got[2])
}

func TestExpand_AllDaysHonorsSundayPolicy(t *testing.T) {
	t.Parallel()

	from := date(2025, time.March, 3) // Monday
	to := date(2025, time.March, 9)   // Sunday

	withSundays := Expand(from, to, "All days", true)
	assert.Len(t, withSundays, 7)

	withoutSundays := Expand(from, to, "All days", false)
	assert.Len(t, withoutSundays, 6)
	for _, d := range withoutSundays {
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestExpand_ExplicitSundayOverridesPolicy(t *testing.T) {
	t.Parallel()

	// A pattern that names Sunday keeps it even when the policy excludes
	// Sundays; the policy only governs pattern-less and "All days" schedules.
	got := Expand(date(2025, time.March, 3), date(2025, time.March, 9), "Sunday", false)
	require.Len(t, got, 1)
	assert.Equal(t, date(2025, time.March, 9), got[0])
}

func TestExpand_EmptyPatternFallsBackToPolicy(t *testing.T) {
	t.Parallel()

	got := Expand(date(2025, time.March, 3), date(2025, time.March, 9), "", false)
	assert.Len(t, got, 6)
}

func TestExpand_InvertedRange(t *testing.T) {
	t.Parallel()

	got := Expand(date(2025, time.March, 9), date(2025, time.March, 3), "All days", true)
	assert.Empty(t, got)
}

func TestTeachingDaysInMonth(t *testing.T) {
	t.Parallel()

	// February 2025 has exactly 12 Mon/Wed/Fri days.
	start, end := MonthBounds(date(2025, time.February, 10))
	assert.Equal(t, 12, TeachingDaysInMonth(start, end, "MWF", false))

	// March 2025 has five Sundays, so 26 non-Sunday days.
	start, end = MonthBounds(date(2025, time.March, 1))
	assert.Equal(t, 26, TeachingDaysInMonth(start, end, "All days", false))
	assert.Equal(t, 31, TeachingDaysInMonth(start, end, "All days", true))
}

func TestValidDate(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidDate(2025, time.March, 31))
	assert.False(t, ValidDate(2025, time.February, 30))
	assert.False(t, ValidDate(2025, time.April, 31))
}

func TestIsAllDays(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAllDays("All days"))
	assert.True(t, IsAllDays("  all days  "))
	assert.True(t, IsAllDays("everyday"))
	assert.False(t, IsAllDays("MWF"))
	assert.False(t, IsAllDays(""))
}
