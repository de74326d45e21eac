package cron

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text"})
	require.NoError(t, err)
	return log
}

func mustDescriptor(t *testing.T, kind, value string) schedule.Descriptor {
	t.Helper()
	d, err := schedule.Normalize(kind, value)
	require.NoError(t, err)
	return d
}

func createTask(t *testing.T, store *Store, owner, name string) Task {
	t.Helper()
	next := time.Date(2026, 2, 11, 9, 0, 0, 0, time.Local)
	task, err := store.Create(owner, "chat-"+owner, name, name, mustDescriptor(t, "every", "60"), &next)
	require.NoError(t, err)
	return task
}

func TestStoreCreateDefaults(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))

	task := createTask(t, store, "u1", "drink water")

	assert.Len(t, task.ID, 12)
	assert.True(t, task.Enabled)
	assert.Equal(t, StatusScheduled, task.Status)
	require.NotNil(t, task.NextRunAt)
}

func TestStoreListFilters(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	createTask(t, store, "u1", "a")
	second := createTask(t, store, "u1", "b")
	createTask(t, store, "u2", "c")

	_, err := store.MarkDisabled(second.ID, false)
	require.NoError(t, err)

	assert.Len(t, store.List(ListFilter{}), 3)
	assert.Len(t, store.List(ListFilter{OwnerUserID: "u1"}), 2)
	assert.Len(t, store.List(ListFilter{OwnerUserID: "u1", Status: StatusPaused}), 1)

	enabled := true
	assert.Len(t, store.List(ListFilter{OwnerUserID: "u1", Enabled: &enabled}), 1)
}

func TestStoreListDue(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	due := createTask(t, store, "u1", "due")
	paused := createTask(t, store, "u1", "paused")
	_, err := store.MarkDisabled(paused.ID, false)
	require.NoError(t, err)

	now := due.NextRunAt.Add(time.Second)
	dueTasks := store.ListDue(now)
	require.Len(t, dueTasks, 1)
	assert.Equal(t, due.ID, dueTasks[0].ID)

	assert.Empty(t, store.ListDue(due.NextRunAt.Add(-time.Second)))
}

func TestStoreResolveForOwner(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	task := createTask(t, store, "u1", "mine")

	resolved, err := store.ResolveForOwner("u1", task.ID[:4])
	require.NoError(t, err)
	assert.Equal(t, task.ID, resolved.ID)

	// Another owner can never reach the task, even with the full id.
	_, err = store.ResolveForOwner("u2", task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ResolveForOwner("u1", "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreResolveAmbiguousPrefix(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	createTask(t, store, "u1", "a")
	createTask(t, store, "u1", "b")

	// The empty prefix matches every task of the owner.
	_, err := store.ResolveForOwner("u1", "")
	assert.ErrorIs(t, err, ErrAmbiguousID)
}

func TestStoreApplyPartialUpdate(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	task := createTask(t, store, "u1", "drink water")

	status := StatusFailed
	errText := "chat unreachable"
	updated, err := store.Apply(task.ID, TaskUpdate{
		Status:        &status,
		SetNextRunAt:  true,
		NextRunAt:     nil,
		SetLastStatus: true,
		LastStatus:    RunError,
		LastError:     &errText,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, updated.Status)
	assert.Nil(t, updated.NextRunAt)
	assert.Equal(t, RunError, updated.LastStatus)
	assert.Equal(t, "chat unreachable", updated.LastError)
	assert.Equal(t, task.Name, updated.Name)
	assert.False(t, updated.UpdatedAt.Before(task.UpdatedAt))

	_, err = store.Apply("no-such-task", TaskUpdate{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMarkDisabledDerivesStatus(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	task := createTask(t, store, "u1", "drink water")
	originalNext := *task.NextRunAt

	paused, err := store.MarkDisabled(task.ID, false)
	require.NoError(t, err)
	assert.False(t, paused.Enabled)
	assert.Equal(t, StatusPaused, paused.Status)
	// Disabling never recomputes the trigger.
	require.NotNil(t, paused.NextRunAt)
	assert.True(t, paused.NextRunAt.Equal(originalNext))

	reenabled, err := store.MarkDisabled(task.ID, true)
	require.NoError(t, err)
	assert.True(t, reenabled.Enabled)
	assert.Equal(t, StatusScheduled, reenabled.Status)
}

func TestStoreRemove(t *testing.T) {
	store := NewStore(t.TempDir(), newTestLogger(t))
	task := createTask(t, store, "u1", "drink water")

	removed, err := store.Remove(task.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Remove(task.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStoreReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	first := NewStore(dir, newTestLogger(t))
	task := createTask(t, first, "u1", "drink water")

	second := NewStore(dir, newTestLogger(t))
	loaded, err := second.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Name, loaded.Name)
	assert.Equal(t, task.Schedule, loaded.Schedule)
	require.NotNil(t, loaded.NextRunAt)
	assert.True(t, loaded.NextRunAt.Equal(*task.NextRunAt))
}

func TestStoreSkipsMalformedRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TasksFilename)
	data := `[
	  {"task_id":"aaaabbbbcccc","owner_user_id":"u1","owner_chat_id":"c1","name":"ok","message":"ok",
	   "schedule_kind":"every","schedule_value":"60","enabled":true,"status":"scheduled",
	   "next_run_at":"2026-02-11T09:00:00","last_run_at":null,"last_status":"","last_error":"",
	   "created_at":"2026-02-10T08:00:00","updated_at":"2026-02-10T08:00:00"},
	  {"task_id":"","owner_user_id":"u1","name":"no id"},
	  "not an object"
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	store := NewStore(dir, newTestLogger(t))
	tasks := store.List(ListFilter{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "ok", tasks[0].Name)
}
