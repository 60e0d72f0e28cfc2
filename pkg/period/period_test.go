package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestValidMonth(t *testing.T) {
	for _, s := range []string{"2026-01", "2026-12", "1999-07"} {
		assert.True(t, ValidMonth(s), s)
	}
	for _, s := range []string{"2026-00", "2026-13", "2026-1", "26-01", "2026/01", "", "2026-01-01"} {
		assert.False(t, ValidMonth(s), s)
	}
}

func TestValidClock(t *testing.T) {
	assert.True(t, ValidClock("08:05"))
	assert.True(t, ValidClock("23:59"))
	assert.False(t, ValidClock("24:00"))
	assert.False(t, ValidClock("8:05"))
	assert.False(t, ValidClock("08h05"))
}

func TestAddMonths(t *testing.T) {
	got, err := AddMonths("2026-01", -2)
	require.NoError(t, err)
	assert.Equal(t, "2025-11", got)

	got, err = AddMonths("2025-12", 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-01", got)

	_, err = AddMonths("bad", 1)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestLastMonths(t *testing.T) {
	now := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2026-01", "2026-02", "2026-03"}, LastMonths(now, 3, time.UTC))
	assert.Nil(t, LastMonths(now, 0, time.UTC))
}

func TestParseDate_NormalizesToNoon(t *testing.T) {
	loc := mustLoc(t, "Indian/Antananarivo")

	d, err := ParseDate("2026-03-10", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, loc), d)

	// 23:30 UTC 在 UTC+3 已是次日
	d, err = ParseDate("2026-03-10T23:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 11, d.Day())
	assert.Equal(t, 12, d.Hour())

	_, err = ParseDate("10/03/2026", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDayBounds_ContainsNormalizedDay(t *testing.T) {
	loc := mustLoc(t, "Indian/Antananarivo")
	day := NormalizeDay(time.Date(2026, 3, 10, 2, 0, 0, 0, loc), loc)
	start, end := DayBounds(day, loc)

	assert.True(t, !day.Before(start) && day.Before(end))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, AgeAt(birth, time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, AgeAt(birth, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeAt(time.Time{}, time.Now()))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 80, Percent(4, 5))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 0, Percent(3, 0))
}

func TestMonthRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(1970, 2200).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		shift := rapid.IntRange(-240, 240).Draw(t, "shift")

		key := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
		if !ValidMonth(key) {
			t.Fatalf("generated key %q should be valid", key)
		}
		moved, err := AddMonths(key, shift)
		if err != nil {
			t.Fatalf("AddMonths(%q, %d): %v", key, shift, err)
		}
		back, err := AddMonths(moved, -shift)
		if err != nil || back != key {
			t.Fatalf("round trip %q -> %q -> %q (%v)", key, moved, back, err)
		}
	})
}

func TestPercent_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		den := rapid.Int64Range(1, 10_000).Draw(t, "den")
		num := rapid.Int64Range(0, den).Draw(t, "num")
		p := Percent(num, den)
		if p < 0 || p > 100 {
			t.Fatalf("Percent(%d, %d) = %d out of range", num, den, p)
		}
		if num == den && p != 100 {
			t.Fatalf("Percent(%d, %d) = %d, want 100", num, den, p)
		}
	})
}
