// Package cron implements the recurring-task half of the reminder engine:
// the owner-scoped task store, the run history store, the /cron command
// parser, the task service, and the natural-language schedule extractor.
package cron

import (
	"errors"
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunResult is the outcome of one delivery attempt.
type RunResult string

const (
	RunOK    RunResult = "ok"
	RunError RunResult = "error"
)

var (
	// ErrNotFound is returned when no task matches an id or id prefix
	// within the requesting owner's tasks.
	ErrNotFound = errors.New("task not found")
	// ErrAmbiguousID is returned when an id prefix matches more than one
	// of the owner's tasks.
	ErrAmbiguousID = errors.New("multiple tasks match this id, provide more characters")
)

// Task is a persisted recurring or deferred unit of work.
type Task struct {
	ID          string
	OwnerUserID string
	OwnerChatID string
	Name        string
	Message     string
	Schedule    schedule.Descriptor
	Enabled     bool
	Status      Status
	NextRunAt   *time.Time
	LastRunAt   *time.Time
	LastStatus  RunResult // empty until the first delivery attempt
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate is a partial update: only supplied fields are applied.
// NextRunAt, LastRunAt and LastStatus can legitimately be cleared, so
// each carries an explicit Set flag instead of relying on nil.
type TaskUpdate struct {
	Name    *string
	Message *string
	Enabled *bool
	Status  *Status

	SetNextRunAt bool
	NextRunAt    *time.Time

	SetLastRunAt bool
	LastRunAt    *time.Time

	SetLastStatus bool
	LastStatus    RunResult

	LastError *string

	// UpdatedAt overrides the automatic bump when supplied.
	UpdatedAt *time.Time
}

func (u TaskUpdate) applyTo(task *Task, now time.Time) {
	if u.Name != nil {
		task.Name = *u.Name
	}
	if u.Message != nil {
		task.Message = *u.Message
	}
	if u.Enabled != nil {
		task.Enabled = *u.Enabled
	}
	if u.Status != nil {
		task.Status = *u.Status
	}
	if u.SetNextRunAt {
		task.NextRunAt = u.NextRunAt
	}
	if u.SetLastRunAt {
		task.LastRunAt = u.LastRunAt
	}
	if u.SetLastStatus {
		task.LastStatus = u.LastStatus
	}
	if u.LastError != nil {
		task.LastError = *u.LastError
	}
	if u.UpdatedAt != nil {
		task.UpdatedAt = *u.UpdatedAt
	} else {
		task.UpdatedAt = now
	}
}

// taskRecord is the persisted JSON shape of a Task. Times are stored as
// canonical instants and nullable fields as JSON null.
type taskRecord struct {
	TaskID        string  `json:"task_id"`
	OwnerUserID   string  `json:"owner_user_id"`
	OwnerChatID   string  `json:"owner_chat_id"`
	Name          string  `json:"name"`
	Message       string  `json:"message"`
	ScheduleKind  string  `json:"schedule_kind"`
	ScheduleValue string  `json:"schedule_value"`
	Enabled       bool    `json:"enabled"`
	Status        string  `json:"status"`
	NextRunAt     *string `json:"next_run_at"`
	LastRunAt     *string `json:"last_run_at"`
	LastStatus    *string `json:"last_status"`
	LastError     string  `json:"last_error"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(schedule.TimeLayout)
	return &s
}

func parseTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, ok := schedule.ParseInstant(*s)
	if !ok {
		return nil
	}
	return &t
}

func recordFromTask(task Task) taskRecord {
	var lastStatus *string
	if task.LastStatus != "" {
		s := string(task.LastStatus)
		lastStatus = &s
	}
	return taskRecord{
		TaskID:        task.ID,
		OwnerUserID:   task.OwnerUserID,
		OwnerChatID:   task.OwnerChatID,
		Name:          task.Name,
		Message:       task.Message,
		ScheduleKind:  string(task.Schedule.Kind),
		ScheduleValue: task.Schedule.Value,
		Enabled:       task.Enabled,
		Status:        string(task.Status),
		NextRunAt:     formatTime(task.NextRunAt),
		LastRunAt:     formatTime(task.LastRunAt),
		LastStatus:    lastStatus,
		LastError:     task.LastError,
		CreatedAt:     task.CreatedAt.Format(schedule.TimeLayout),
		UpdatedAt:     task.UpdatedAt.Format(schedule.TimeLayout),
	}
}

func (r taskRecord) toTask(now time.Time) Task {
	status := Status(r.Status)
	switch status {
	case StatusScheduled, StatusPaused, StatusCompleted, StatusFailed:
	default:
		status = StatusScheduled
	}
	var lastStatus RunResult
	if r.LastStatus != nil {
		switch RunResult(*r.LastStatus) {
		case RunOK, RunError:
			lastStatus = RunResult(*r.LastStatus)
		}
	}
	createdAt := now
	if t := parseTime(&r.CreatedAt); t != nil {
		createdAt = *t
	}
	updatedAt := now
	if t := parseTime(&r.UpdatedAt); t != nil {
		updatedAt = *t
	}
	return Task{
		ID:          r.TaskID,
		OwnerUserID: r.OwnerUserID,
		OwnerChatID: r.OwnerChatID,
		Name:        r.Name,
		Message:     r.Message,
		Schedule:    schedule.Descriptor{Kind: schedule.Kind(r.ScheduleKind), Value: r.ScheduleValue},
		Enabled:     r.Enabled,
		Status:      status,
		NextRunAt:   parseTime(r.NextRunAt),
		LastRunAt:   parseTime(r.LastRunAt),
		LastStatus:  lastStatus,
		LastError:   r.LastError,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}
