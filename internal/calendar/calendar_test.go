package calendar

import (
	"testing"
	"time"

	"leaderboard-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidKeys(t *testing.T) {
	for _, key := range []string{"2024-02-29", "2000-02-29", "2023-12-31", "0001-01-01"} {
		_, err := Parse(key)
		assert.NoError(t, err, key)
	}
}

func TestParseInvalidKeys(t *testing.T) {
	cases := []string{
		"2023-02-29",
		"1900-02-29",
		"2024-13-01",
		"2024-00-10",
		"2024-04-31",
		"2024-1-01",
		"2024/01/01",
		"2024-01-0a",
		"20240101",
		"",
		" 2024-01-01",
	}
	for _, key := range cases {
		_, err := Parse(key)
		require.Error(t, err, key)
		assert.True(t, domain.HasValidationCode(err, domain.CodeInvalidChallengeKey), key)
	}
}

func TestDayNumberMatchesUnixDays(t *testing.T) {
	n, err := DayNumber("1970-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	start := time.Date(1899, 12, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3000; i++ {
		day := start.AddDate(0, 0, i*17)
		n, err := DayNumber(KeyFor(day))
		require.NoError(t, err)
		assert.Equal(t, day.Unix()/86400, n, KeyFor(day))
	}
}

func TestDayNumberAcrossLeapDay(t *testing.T) {
	a, err := DayNumber("2024-02-29")
	require.NoError(t, err)
	b, err := DayNumber("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b-a)
}

func TestIsNextDay(t *testing.T) {
	ok, err := IsNextDay("2023-12-31", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsNextDay("2024-01-01", "2024-01-03")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsNextDay("2024-01-02", "2024-01-01")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = IsNextDay("2024-01-01", "nope")
	assert.Error(t, err)
}
