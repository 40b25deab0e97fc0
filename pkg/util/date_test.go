package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	assert.True(t, ParseTimeDefault("", def).Equal(def))
}

func TestParseDay(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"2024-03-01",
		"2024-03-01T23:00:00-05:00",
		"2024-03-01T09:30:00Z",
		"Fri Mar 01 20:19:24 +0000 2024",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			got, ok := ParseDay(c)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}

	_, ok := ParseDay("not a date")
	assert.False(t, ok)
	_, ok = ParseDay("")
	assert.False(t, ok)
}

func TestDayKeyAndAddDays(t *testing.T) {
	d := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-31", DayKey(d))
	assert.Equal(t, "2024-03-01", DayKey(AddDays(d, 30)))
	assert.Equal(t, "2025-01-30", DayKey(AddDays(d, 365)))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol(" $aapl "))
	assert.Equal(t, "TSLA", NormalizeSymbol("tsla"))
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}
