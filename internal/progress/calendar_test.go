package progress

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDate_AddDaysAndCompare(t *testing.T) {
	d := mustDate(t, "2024-12-31")
	assert.Equal(t, mustDate(t, "2025-01-01"), d.AddDays(1))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Start Date `json:"start"`
	}
	b, err := json.Marshal(payload{Start: mustDate(t, "2024-01-05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-05"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2023-07-09"}`), &p))
	assert.Equal(t, mustDate(t, "2023-07-09"), p.Start)
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	start := DateOf(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC))
	today := DateOf(time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, 1, DaysBetween(start, today, time.UTC))
	assert.Equal(t, -1, DaysBetween(today, start, time.UTC))
}
