package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhenTomorrowDigitalTime(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	start, title, ok := ParseWhen("remind me tomorrow at 10:00 to join the meeting", now)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 11, 10, 0, 0, 0, time.Local), start)
	assert.Equal(t, "join the meeting", title)
}

func TestParseWhenExplicitDate(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	start, title, ok := ParseWhen("schedule 2026-03-01 14:30 dentist", now)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 14, 30, 0, 0, time.Local), start)
	assert.Equal(t, "dentist", title)
}

func TestParseWhenDefaultsToToday(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	start, _, ok := ParseWhen("remind me at 18:00 to buy milk", now)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 10, 18, 0, 0, 0, time.Local), start)
}

func TestParseWhenDayAfterTomorrow(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	start, _, ok := ParseWhen("remind me day after tomorrow at 9:15 standup", now)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 12, 9, 15, 0, 0, time.Local), start)
}

func TestParseWhenOClockPhrasing(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	start, _, ok := ParseWhen("remind me tomorrow evening eight o'clock to call mom", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 11, 20, 0, 0, 0, time.Local), start)

	start, _, ok = ParseWhen("remind me tomorrow at half past nine to review notes", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 11, 9, 30, 0, 0, time.Local), start)
}

func TestParseWhenRequiresTime(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	_, _, ok := ParseWhen("remind me tomorrow to join the meeting", now)
	assert.False(t, ok)

	_, _, ok = ParseWhen("", now)
	assert.False(t, ok)
}

func TestParseWhenRejectsOutOfRangeClock(t *testing.T) {
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.Local)

	_, _, ok := ParseWhen("remind me tomorrow at 25:70 to sleep", now)
	assert.False(t, ok)
}
