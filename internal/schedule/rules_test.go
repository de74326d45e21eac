package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, ok := ParseInstant(value)
	require.True(t, ok, "test time %q must parse", value)
	return parsed
}

func TestNormalize_At(t *testing.T) {
	d, err := Normalize("at", "2026-02-11 09:00")
	require.NoError(t, err)
	assert.Equal(t, KindAt, d.Kind)
	assert.Equal(t, "2026-02-11T09:00:00", d.Value)

	d, err = Normalize("AT", "2026-02-11T09:00:30")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-11T09:00:30", d.Value)
}

func TestNormalize_Every(t *testing.T) {
	d, err := Normalize("every", " 60 ")
	require.NoError(t, err)
	assert.Equal(t, KindEvery, d.Kind)
	assert.Equal(t, "60", d.Value)
}

func TestNormalize_Cron(t *testing.T) {
	d, err := Normalize("cron", "  */15  9-18   *  * 1-5 ")
	require.NoError(t, err)
	assert.Equal(t, KindCron, d.Kind)
	assert.Equal(t, "*/15 9-18 * * 1-5", d.Value)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		value string
		want  error
	}{
		{"unknown kind", "daily", "60", ErrInvalidKind},
		{"empty value", "every", "   ", ErrInvalidValue},
		{"at garbage", "at", "next tuesday", ErrInvalidValue},
		{"every zero", "every", "0", ErrInvalidValue},
		{"every negative", "every", "-5", ErrInvalidValue},
		{"every float", "every", "1.5", ErrInvalidValue},
		{"cron four fields", "cron", "* * * *", ErrInvalidValue},
		{"cron six fields", "cron", "* * * * * *", ErrInvalidValue},
		{"cron minute out of range", "cron", "60 * * * *", ErrInvalidCronField},
		{"cron hour out of range", "cron", "0 24 * * *", ErrInvalidCronField},
		{"cron inverted range", "cron", "30-10 * * * *", ErrInvalidCronField},
		{"cron zero step", "cron", "*/0 * * * *", ErrInvalidCronField},
		{"cron negative step", "cron", "*/-2 * * * *", ErrInvalidCronField},
		{"cron empty element", "cron", "1,,2 * * * *", ErrInvalidCronField},
		{"cron non numeric", "cron", "a * * * *", ErrInvalidCronField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.kind, tt.value)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNextRun_AtStrictlyAfterReference(t *testing.T) {
	d := Descriptor{Kind: KindAt, Value: "2026-02-11T09:00:00"}
	reference := mustTime(t, "2026-02-11T08:59:00")

	next, err := NextRun(d, reference, nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T09:00:00"), *next)

	// At or after the instant there is no future occurrence.
	next, err = NextRun(d, mustTime(t, "2026-02-11T09:00:00"), nil)
	require.NoError(t, err)
	assert.Nil(t, next)

	next, err = NextRun(d, mustTime(t, "2026-02-11T10:00:00"), nil)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextRun_IntervalFromReference(t *testing.T) {
	d := Descriptor{Kind: KindEvery, Value: "60"}
	reference := mustTime(t, "2026-02-11T09:00:00")

	next, err := NextRun(d, reference, nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T09:01:00"), *next)
}

func TestNextRun_IntervalAnchoredToLastRun(t *testing.T) {
	d := Descriptor{Kind: KindEvery, Value: "300"}
	lastRun := mustTime(t, "2026-02-11T09:00:00")

	// Shortly after the last run the cadence is preserved.
	next, err := NextRun(d, mustTime(t, "2026-02-11T09:01:00"), &lastRun)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T09:05:00"), *next)

	// After long downtime the result is the smallest multiple of the
	// interval past the anchor that still lies in the future.
	next, err = NextRun(d, mustTime(t, "2026-02-11T12:03:00"), &lastRun)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T12:05:00"), *next)
	assert.True(t, next.After(mustTime(t, "2026-02-11T12:03:00")))
}

func TestNextRun_IntervalAlwaysInFuture(t *testing.T) {
	reference := mustTime(t, "2026-02-11T09:00:00")
	for _, seconds := range []string{"1", "7", "60", "3600", "86400"} {
		d := Descriptor{Kind: KindEvery, Value: seconds}
		next, err := NextRun(d, reference, nil)
		require.NoError(t, err)
		require.NotNil(t, next, "every %s", seconds)
		assert.True(t, next.After(reference), "every %s", seconds)
	}
}

func TestNextRun_CronDailyAtNine(t *testing.T) {
	d := Descriptor{Kind: KindCron, Value: "0 9 * * *"}

	next, err := NextRun(d, mustTime(t, "2026-02-11T08:30:00"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T09:00:00"), *next)

	// Exactly at 09:00 the match is strictly in the future: tomorrow.
	next, err = NextRun(d, mustTime(t, "2026-02-11T09:00:00"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-12T09:00:00"), *next)
}

func TestNextRun_CronSecondsTruncated(t *testing.T) {
	d := Descriptor{Kind: KindCron, Value: "* * * * *"}
	next, err := NextRun(d, mustTime(t, "2026-02-11T09:00:45"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T09:01:00"), *next)
}

func TestNextRun_CronDayOfMonthOrDayOfWeek(t *testing.T) {
	// Both day fields restricted: the 15th OR a Monday qualifies.
	d := Descriptor{Kind: KindCron, Value: "0 9 15 * 1"}

	// 2026-02-11 is a Wednesday; the next Monday is 2026-02-16, but the
	// 15th (a Sunday) comes first.
	next, err := NextRun(d, mustTime(t, "2026-02-11T10:00:00"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-15T09:00:00"), *next)

	// From the 15th the next match is Monday the 16th.
	next, err = NextRun(d, mustTime(t, "2026-02-15T10:00:00"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-16T09:00:00"), *next)
}

func TestNextRun_CronOnlyDayOfWeekRestricted(t *testing.T) {
	d := Descriptor{Kind: KindCron, Value: "20 18 * * 1"}
	// 2026-02-11 is a Wednesday; next Monday is 2026-02-16.
	next, err := NextRun(d, mustTime(t, "2026-02-11T09:00:00"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-16T18:20:00"), *next)
}

func TestNextRun_CronSundayAlias(t *testing.T) {
	// Weekday 7 is an alias for Sunday.
	seven := Descriptor{Kind: KindCron, Value: "0 9 * * 7"}
	zero := Descriptor{Kind: KindCron, Value: "0 9 * * 0"}
	reference := mustTime(t, "2026-02-11T09:00:00")

	nextSeven, err := NextRun(seven, reference, nil)
	require.NoError(t, err)
	nextZero, err := NextRun(zero, reference, nil)
	require.NoError(t, err)
	require.NotNil(t, nextSeven)
	require.NotNil(t, nextZero)
	assert.Equal(t, *nextZero, *nextSeven)
	assert.Equal(t, time.Sunday, nextSeven.Weekday())
}

func TestNextRun_CronNoMatchWithinHorizon(t *testing.T) {
	// February 31st never exists.
	d := Descriptor{Kind: KindCron, Value: "0 0 31 2 *"}
	next, err := NextRun(d, mustTime(t, "2026-02-11T09:00:00"), nil)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextRun_CronStepField(t *testing.T) {
	d := Descriptor{Kind: KindCron, Value: "*/30 * * * *"}
	next, err := NextRun(d, mustTime(t, "2026-02-11T09:10:00"), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2026-02-11T09:30:00"), *next)
}

func TestNextRun_IsPure(t *testing.T) {
	d := Descriptor{Kind: KindCron, Value: "0 9 * * *"}
	reference := mustTime(t, "2026-02-11T08:30:00")
	first, err := NextRun(d, reference, nil)
	require.NoError(t, err)
	second, err := NextRun(d, reference, nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestNextRun_InvalidDescriptor(t *testing.T) {
	_, err := NextRun(Descriptor{Kind: "weekly", Value: "1"}, time.Now(), nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestParseInstant(t *testing.T) {
	parsed, ok := ParseInstant("2026-02-11 09:00")
	require.True(t, ok)
	assert.Equal(t, 9, parsed.Hour())

	_, ok = ParseInstant("2026-13-40T09:00")
	assert.False(t, ok)

	_, ok = ParseInstant("tomorrow")
	assert.False(t, ok)
}
