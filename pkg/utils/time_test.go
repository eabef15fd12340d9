package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	utilsTime := Now()
	standardTime := time.Now().UTC()

	assert.WithinDuration(t, standardTime, utilsTime, 10*time.Millisecond)
	assert.Equal(t, time.UTC, utilsTime.Location())
}

func TestFormatISO8601(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "UTC time",
			input:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: "2021-01-01T00:00:00Z",
		},
		{
			name:     "non-UTC time is converted to UTC",
			input:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.FixedZone("IST", 5*60*60+30*60)),
			expected: "2020-12-31T18:30:00Z",
		},
		{
			name:     "with milliseconds",
			input:    time.Date(2021, 1, 1, 0, 0, 0, 123000000, time.UTC),
			expected: "2021-01-01T00:00:00Z",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatISO8601(tc.input))
		})
	}
}

func TestWholeDays(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Duration
		expected int
	}{
		{name: "zero", input: 0, expected: 0},
		{name: "23 hours", input: 23 * time.Hour, expected: 0},
		{name: "exactly one day", input: 24 * time.Hour, expected: 1},
		{name: "two and a half days", input: 60 * time.Hour, expected: 2},
		{name: "negative hour floors to -1", input: -time.Hour, expected: -1},
		{name: "exactly minus one day", input: -24 * time.Hour, expected: -1},
		{name: "minus 25 hours", input: -25 * time.Hour, expected: -2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, WholeDays(tc.input))
		})
	}
}

func TestAddDays(t *testing.T) {
	now := time.Date(2024, 3, 30, 15, 4, 5, 999, time.UTC)
	got := AddDays(now, 3)
	assert.Equal(t, time.Date(2024, 4, 2, 15, 4, 5, 0, time.UTC), got)
	assert.Equal(t, "2024-04-02", FormatDate(got))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 31, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, 29, DaysBetween(a, b))
	assert.Equal(t, -30, DaysBetween(b, a))
}
