// Package dispatch collects due reminders and recurring tasks and
// records their delivery outcomes. The poll loop calls CollectDue,
// delivers each payload over the chat channel, then reports back with
// MarkSent or MarkFailed.
package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/agenda"
	"github.com/CafeDonggua/c-dong-bot/internal/cron"
	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/metrics"
	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

// ReminderPayload is a due one-off reminder ready for delivery.
type ReminderPayload struct {
	ReminderID string
	EventID    string
	ChatID     string
	Message    string
}

// TaskPayload is a due recurring task ready for delivery.
type TaskPayload struct {
	TaskID  string
	ChatID  string
	Message string
}

// Payload is either a ReminderPayload or a TaskPayload.
type Payload interface {
	DeliveryChatID() string
	DeliveryMessage() string
}

func (p ReminderPayload) DeliveryChatID() string  { return p.ChatID }
func (p ReminderPayload) DeliveryMessage() string { return p.Message }
func (p TaskPayload) DeliveryChatID() string      { return p.ChatID }
func (p TaskPayload) DeliveryMessage() string     { return p.Message }

// Dispatcher owns the in-flight set that makes due-task collection
// idempotent under overlapping polls. It is process-local state for a
// single writer process; a second process sharing the same data
// directory is not protected against.
type Dispatcher struct {
	events    *agenda.EventStore
	reminders *agenda.ReminderStore
	tasks     *cron.Store
	runs      *cron.RunStore
	logger    *logger.Logger
	metrics   *metrics.PrometheusMetrics

	inflight map[string]struct{}
}

// New creates a dispatcher. metrics may be nil.
func New(
	events *agenda.EventStore,
	reminders *agenda.ReminderStore,
	tasks *cron.Store,
	runs *cron.RunStore,
	log *logger.Logger,
	m *metrics.PrometheusMetrics,
) *Dispatcher {
	return &Dispatcher{
		events:    events,
		reminders: reminders,
		tasks:     tasks,
		runs:      runs,
		logger:    log,
		metrics:   m,
		inflight:  make(map[string]struct{}),
	}
}

// CollectDue returns everything due at now: pending reminders first,
// then recurring tasks. A reminder whose backing event is missing or no
// longer scheduled is failed with "schedule_missing" and silently
// dropped. A recurring task id is added to the in-flight set before it
// is returned, so overlapping polls never hand out the same task twice
// before its outcome is recorded.
func (d *Dispatcher) CollectDue(now time.Time) []Payload {
	started := time.Now()
	var due []Payload

	for _, reminder := range d.reminders.ListPending() {
		if reminder.TriggerTime.After(now) {
			continue
		}
		event, ok := d.events.Get(reminder.EventID)
		if !ok || event.Status != agenda.EventScheduled {
			d.reminders.MarkFailed(reminder.ID, "schedule_missing")
			if d.metrics != nil {
				d.metrics.RecordReminderDropped()
			}
			continue
		}
		due = append(due, ReminderPayload{
			ReminderID: reminder.ID,
			EventID:    event.ID,
			ChatID:     event.ChatID,
			Message:    fmt.Sprintf("reminder: %s (%s)", event.Title, event.StartTime.Format("15:04")),
		})
	}

	for _, task := range d.tasks.ListDue(now) {
		if _, held := d.inflight[task.ID]; held {
			continue
		}
		d.inflight[task.ID] = struct{}{}
		due = append(due, TaskPayload{
			TaskID:  task.ID,
			ChatID:  task.OwnerChatID,
			Message: taskMessage(task),
		})
	}

	if d.metrics != nil {
		d.metrics.RecordPoll(len(due), time.Since(started))
	}
	return due
}

// MarkSent records a successful delivery. A one-off reminder is marked
// sent and its event completed. A recurring task leaves the in-flight
// set, gets its next trigger recomputed from now, and an ok run record
// is appended; a task with no future occurrence is completed.
func (d *Dispatcher) MarkSent(payload Payload, now time.Time) {
	switch p := payload.(type) {
	case ReminderPayload:
		d.reminders.MarkSent(p.ReminderID)
		d.events.SetStatus(p.EventID, agenda.EventCompleted)
	case TaskPayload:
		delete(d.inflight, p.TaskID)
		task, err := d.tasks.Get(p.TaskID)
		if err != nil {
			d.logger.Warn("sent task vanished before status update",
				logger.Field{Key: "task_id", Value: p.TaskID})
			return
		}
		nextRun, err := schedule.NextRun(task.Schedule, now, &now)
		if err != nil {
			d.logger.Error("failed to recompute next trigger", err,
				logger.Field{Key: "task_id", Value: p.TaskID})
			nextRun = nil
		}
		status := cron.StatusScheduled
		if nextRun == nil {
			status = cron.StatusCompleted
		}
		d.applyOutcome(task.ID, status, nextRun, now, cron.RunOK, "")
		if _, err := d.runs.Create(p.TaskID, p.ChatID, cron.RunOK, "", now); err != nil {
			d.logger.Error("failed to append run record", err,
				logger.Field{Key: "task_id", Value: p.TaskID})
		}
	}
	if d.metrics != nil {
		d.metrics.RecordDelivery("ok")
	}
}

// MarkFailed records a failed delivery. A one-off reminder is failed
// with the error text and never retried. A recurring task leaves the
// in-flight set and freezes: status failed, next trigger unchanged, an
// error run record appended. Recovery is a manual enable, which
// recomputes the trigger from the current time.
func (d *Dispatcher) MarkFailed(payload Payload, deliveryErr string, now time.Time) {
	switch p := payload.(type) {
	case ReminderPayload:
		d.reminders.MarkFailed(p.ReminderID, deliveryErr)
	case TaskPayload:
		delete(d.inflight, p.TaskID)
		task, err := d.tasks.Get(p.TaskID)
		if err != nil {
			d.logger.Warn("failed task vanished before status update",
				logger.Field{Key: "task_id", Value: p.TaskID})
			return
		}
		d.applyOutcome(task.ID, cron.StatusFailed, task.NextRunAt, now, cron.RunError, deliveryErr)
		if _, err := d.runs.Create(p.TaskID, p.ChatID, cron.RunError, deliveryErr, now); err != nil {
			d.logger.Error("failed to append run record", err,
				logger.Field{Key: "task_id", Value: p.TaskID})
		}
	}
	if d.metrics != nil {
		d.metrics.RecordDelivery("error")
	}
}

// InflightCount reports how many recurring tasks are handed out but not
// yet resolved.
func (d *Dispatcher) InflightCount() int {
	return len(d.inflight)
}

func (d *Dispatcher) applyOutcome(taskID string, status cron.Status, nextRun *time.Time, now time.Time, result cron.RunResult, errText string) {
	lastRun := now
	update := cron.TaskUpdate{
		Status:        &status,
		SetNextRunAt:  true,
		NextRunAt:     nextRun,
		SetLastRunAt:  true,
		LastRunAt:     &lastRun,
		SetLastStatus: true,
		LastStatus:    result,
		LastError:     &errText,
	}
	if _, err := d.tasks.Apply(taskID, update); err != nil {
		d.logger.Error("failed to record delivery outcome", err,
			logger.Field{Key: "task_id", Value: taskID})
	}
}

// taskMessage picks the delivery text: the message, falling back to the
// task name.
func taskMessage(task cron.Task) string {
	if text := strings.TrimSpace(task.Message); text != "" {
		return text
	}
	if text := strings.TrimSpace(task.Name); text != "" {
		return text
	}
	return "reminder: " + task.Name
}
