package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_LocalMidnightWindow(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 23:30 UTC on the 17th is already the 18th in Paris (UTC+2 in October).
	d := DayOf(time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC), paris)
	assert.Equal(t, "2026-10-18", d.Key)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, paris), d.Start)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, paris), d.End)

	assert.True(t, d.Contains(d.Start))
	assert.False(t, d.Contains(d.End))
	assert.True(t, d.Contains(d.End.Add(-time.Nanosecond)))
}

func TestDayOf_DSTDayIsNot24Hours(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	d := DayOf(time.Date(2026, 10, 25, 12, 0, 0, 0, paris), paris)
	assert.Equal(t, 25*time.Hour, d.End.Sub(d.Start))
}

func TestFormatNumber_MinimumWidth(t *testing.T) {
	assert.Equal(t, "001", FormatNumber(1))
	assert.Equal(t, "042", FormatNumber(42))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1000", FormatNumber(1000))
	assert.Equal(t, "001", NextNumber(0))
	assert.Equal(t, "1000", NextNumber(999))
}

func TestParseNumber(t *testing.T) {
	n, err := ParseNumber("007")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = ParseNumber("abc")
	assert.Error(t, err)
	_, err = ParseNumber("-3")
	assert.Error(t, err)
}
