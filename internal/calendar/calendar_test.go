package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDay_NormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2024, time.March, 10, 23, 45, 12, 0, loc)
	assert.Equal(t, day(2024, time.March, 10), Day(in))
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(day(2024, time.March, 17))
	assert.Equal(t, day(2024, time.March, 1), first)
	assert.Equal(t, day(2024, time.March, 31), last)

	first, last = MonthBounds(day(2024, time.February, 2))
	assert.Equal(t, day(2024, time.February, 1), first)
	assert.Equal(t, day(2024, time.February, 29), last) // leap year
}

func TestDaysInMonth_Lengths(t *testing.T) {
	assert.Len(t, DaysInMonth(day(2024, time.March, 15)), 31)
	assert.Len(t, DaysInMonth(day(2024, time.April, 1)), 30)
	assert.Len(t, DaysInMonth(day(2024, time.February, 10)), 29)
	assert.Len(t, DaysInMonth(day(2023, time.February, 10)), 28)
}

func TestDaysInMonth_AscendingAndContiguous(t *testing.T) {
	days := DaysInMonth(day(2024, time.March, 1))
	for i := 1; i < len(days); i++ {
		assert.Equal(t, days[i-1].AddDate(0, 0, 1), days[i])
	}
	assert.Equal(t, day(2024, time.March, 1), days[0])
	assert.Equal(t, day(2024, time.March, 31), days[len(days)-1])
}

func TestEnumerateNights_HalfOpen(t *testing.T) {
	nights := EnumerateNights(day(2024, time.March, 10), day(2024, time.March, 13))
	assert.Equal(t, []time.Time{
		day(2024, time.March, 10),
		day(2024, time.March, 11),
		day(2024, time.March, 12),
	}, nights)
}

func TestEnumerateNights_CrossesMonthBoundary(t *testing.T) {
	nights := EnumerateNights(day(2024, time.March, 30), day(2024, time.April, 2))
	assert.Equal(t, []time.Time{
		day(2024, time.March, 30),
		day(2024, time.March, 31),
		day(2024, time.April, 1),
	}, nights)
}

func TestEnumerateNights_EmptyForInvertedOrSameDay(t *testing.T) {
	assert.Empty(t, EnumerateNights(day(2024, time.March, 10), day(2024, time.March, 10)))
	assert.Empty(t, EnumerateNights(day(2024, time.March, 13), day(2024, time.March, 10)))
}

func TestNightsBetween(t *testing.T) {
	n, err := NightsBetween(day(2024, time.March, 10), day(2024, time.March, 13))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = NightsBetween(day(2024, time.March, 10), day(2024, time.March, 11))
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNightsBetween_InvalidRange(t *testing.T) {
	_, err := NightsBetween(day(2024, time.March, 10), day(2024, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NightsBetween(day(2024, time.March, 13), day(2024, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNightsBetween_MatchesEnumerateNights(t *testing.T) {
	in, out := day(2024, time.January, 28), day(2024, time.March, 3)
	n, err := NightsBetween(in, out)
	assert.NoError(t, err)
	assert.Equal(t, len(EnumerateNights(in, out)), n)
}
