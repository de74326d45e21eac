package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

func TestParseIgnoresNonCronText(t *testing.T) {
	var p Parser
	assert.Nil(t, p.Parse("hello there"))
	assert.Nil(t, p.Parse("/cronjob list"))
	assert.Nil(t, p.Parse("/start"))
}

func TestParseHelpAndAliases(t *testing.T) {
	var p Parser

	for _, text := range []string{"/cron", "/cron help", "/cron h"} {
		cmd := p.Parse(text)
		require.NotNil(t, cmd, text)
		assert.Equal(t, ActionHelp, cmd.Action, text)
	}
}

func TestParseList(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron list")
	require.NotNil(t, cmd)
	assert.Equal(t, ActionList, cmd.Action)
	assert.Empty(t, cmd.StatusFilter)

	cmd = p.Parse("/cron ls paused")
	require.NotNil(t, cmd)
	assert.Equal(t, ActionList, cmd.Action)
	assert.Equal(t, StatusPaused, cmd.StatusFilter)

	cmd = p.Parse("/cron list sleeping")
	require.NotNil(t, cmd)
	assert.False(t, cmd.Valid())
	assert.Contains(t, cmd.Errors[0], "unsupported status filter")
}

func TestParseAddEvery(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron add every 60 drink water | please drink water")
	require.NotNil(t, cmd)
	require.True(t, cmd.Valid())
	assert.Equal(t, ActionAdd, cmd.Action)
	assert.Equal(t, schedule.KindEvery, cmd.Schedule.Kind)
	assert.Equal(t, "60", cmd.Schedule.Value)
	assert.Equal(t, "drink water", cmd.Name)
	assert.Equal(t, "please drink water", cmd.Message)
}

func TestParseAddWithoutPipeUsesNameAsMessage(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron add every 60 drink water")
	require.NotNil(t, cmd)
	require.True(t, cmd.Valid())
	assert.Equal(t, "drink water", cmd.Name)
	assert.Equal(t, "drink water", cmd.Message)
}

func TestParseAddAtMergesDateAndTimeTokens(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron add at 2026-02-11 09:01 standup | join the standup")
	require.NotNil(t, cmd)
	require.True(t, cmd.Valid())
	assert.Equal(t, schedule.KindAt, cmd.Schedule.Kind)
	assert.Equal(t, "2026-02-11T09:01:00", cmd.Schedule.Value)
	assert.Equal(t, "standup", cmd.Name)

	combined := p.Parse("/cron add at 2026-02-11T09:01 standup")
	require.NotNil(t, combined)
	require.True(t, combined.Valid())
	assert.Equal(t, "2026-02-11T09:01:00", combined.Schedule.Value)
}

func TestParseAddCronQuotedValue(t *testing.T) {
	var p Parser

	cmd := p.Parse(`/cron add cron "*/30 * * * *" half-hour | time to move`)
	require.NotNil(t, cmd)
	require.True(t, cmd.Valid())
	assert.Equal(t, schedule.KindCron, cmd.Schedule.Kind)
	assert.Equal(t, "*/30 * * * *", cmd.Schedule.Value)
	assert.Equal(t, "half-hour", cmd.Name)
}

func TestParseAddCronUnquotedTakesFirstFiveTokens(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron add cron 0 9 * * 1 weekly report | send the weekly report")
	require.NotNil(t, cmd)
	require.True(t, cmd.Valid())
	assert.Equal(t, "0 9 * * 1", cmd.Schedule.Value)
	assert.Equal(t, "weekly report", cmd.Name)
	assert.Equal(t, "send the weekly report", cmd.Message)
}

func TestParseAddValidationErrors(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron add every banana stretch")
	require.NotNil(t, cmd)
	require.False(t, cmd.Valid())
	assert.Contains(t, cmd.Errors[0], "every requires")

	cmd = p.Parse("/cron add every 60")
	require.NotNil(t, cmd)
	require.False(t, cmd.Valid())
	assert.Equal(t, "missing task name.", cmd.Errors[0])

	cmd = p.Parse("/cron add")
	require.NotNil(t, cmd)
	require.False(t, cmd.Valid())

	cmd = p.Parse(`/cron add cron "*/30 * * *" broken | x`)
	require.NotNil(t, cmd)
	require.False(t, cmd.Valid())
}

func TestParseTaskActions(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron remove abcd1234")
	require.NotNil(t, cmd)
	require.True(t, cmd.Valid())
	assert.Equal(t, ActionRemove, cmd.Action)
	assert.Equal(t, "abcd1234", cmd.TaskID)

	for _, alias := range []string{"delete", "rm"} {
		cmd := p.Parse("/cron " + alias + " abcd1234")
		require.NotNil(t, cmd, alias)
		assert.Equal(t, ActionRemove, cmd.Action, alias)
	}

	enable := p.Parse("/cron enable abcd1234")
	require.NotNil(t, enable)
	require.NotNil(t, enable.Enabled)
	assert.True(t, *enable.Enabled)

	disable := p.Parse("/cron disable abcd1234")
	require.NotNil(t, disable)
	require.NotNil(t, disable.Enabled)
	assert.False(t, *disable.Enabled)

	missing := p.Parse("/cron remove")
	require.NotNil(t, missing)
	assert.False(t, missing.Valid())

	badID := p.Parse("/cron remove a!")
	require.NotNil(t, badID)
	assert.False(t, badID.Valid())
}

func TestParseUnknownSubcommand(t *testing.T) {
	var p Parser

	cmd := p.Parse("/cron dance")
	require.NotNil(t, cmd)
	assert.Equal(t, ActionInvalid, cmd.Action)
	assert.False(t, cmd.Valid())
}
