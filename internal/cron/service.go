package cron

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

// displayLayout is how trigger instants appear in replies.
const displayLayout = "2006-01-02 15:04"

// Owner identifies the requesting user and the chat the reminders are
// delivered to. All service operations are scoped to it.
type Owner struct {
	UserID string
	ChatID string
}

// Result is the user-facing outcome of one command.
type Result struct {
	Reply string
}

// Service orchestrates the parser, the rule engine and the task store
// into user-facing responses. Validation failures never propagate past
// it; they come back as reply text with a usage example appended.
type Service struct {
	store  *Store
	logger *logger.Logger
}

// NewService creates a task service over store.
func NewService(store *Store, log *logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

// Handle executes a parsed command for owner, evaluated at now.
func (s *Service) Handle(cmd *Command, owner Owner, now time.Time) Result {
	if cmd == nil {
		return Result{Reply: helpText()}
	}
	if !cmd.Valid() {
		return Result{Reply: formatParseError(cmd)}
	}
	switch cmd.Action {
	case ActionHelp:
		return Result{Reply: helpText()}
	case ActionAdd:
		return s.handleAdd(cmd, owner, now)
	case ActionList:
		return s.handleList(cmd, owner)
	case ActionRemove:
		return s.handleRemove(cmd, owner)
	case ActionEnable:
		return s.handleEnable(cmd, owner, now)
	case ActionDisable:
		return s.handleDisable(cmd, owner)
	default:
		return Result{Reply: helpText()}
	}
}

func (s *Service) handleAdd(cmd *Command, owner Owner, now time.Time) Result {
	if cmd.Schedule.Kind == "" || cmd.Schedule.Value == "" {
		return Result{Reply: "missing schedule, use /cron add <at|every|cron> ...\n" +
			"e.g.: /cron add every 60 drink water | please drink water"}
	}
	next, err := schedule.NextRun(cmd.Schedule, now, nil)
	if err != nil {
		return Result{Reply: err.Error()}
	}
	if next == nil {
		return Result{Reply: "the scheduled time has already passed, please set a new one."}
	}
	task, err := s.store.Create(owner.UserID, owner.ChatID, cmd.Name, cmd.Message, cmd.Schedule, next)
	if err != nil {
		s.logger.Error("failed to create task", err,
			logger.Field{Key: "owner", Value: owner.UserID})
		return Result{Reply: "failed to create the task, please try again later."}
	}
	return Result{Reply: fmt.Sprintf("created /cron task: %s (ID:%s, next run: %s)",
		task.Name, shortID(task.ID), next.Format(displayLayout))}
}

func (s *Service) handleList(cmd *Command, owner Owner) Result {
	tasks := s.store.List(ListFilter{OwnerUserID: owner.UserID, Status: cmd.StatusFilter})
	if len(tasks) == 0 {
		if cmd.StatusFilter != "" {
			return Result{Reply: fmt.Sprintf("no /cron tasks with status %s.", cmd.StatusFilter)}
		}
		return Result{Reply: "no /cron tasks yet."}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].NextRunAt, tasks[j].NextRunAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		next := "-"
		if task.NextRunAt != nil {
			next = task.NextRunAt.Format(displayLayout)
		}
		enabled := "N"
		if task.Enabled {
			enabled = "Y"
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s | %s:%s | status:%s | enabled:%s | next:%s",
			shortID(task.ID), task.Name, task.Schedule.Kind, task.Schedule.Value,
			task.Status, enabled, next))
	}
	return Result{Reply: "/cron tasks:\n" + strings.Join(lines, "\n")}
}

func (s *Service) handleRemove(cmd *Command, owner Owner) Result {
	task, err := s.store.ResolveForOwner(owner.UserID, cmd.TaskID)
	if err != nil {
		return Result{Reply: resolveErrorReply(err)}
	}
	removed, err := s.store.Remove(task.ID)
	if err != nil || !removed {
		if err != nil {
			s.logger.Error("failed to remove task", err,
				logger.Field{Key: "task_id", Value: task.ID})
		}
		return Result{Reply: "failed to remove the task, please try again later."}
	}
	return Result{Reply: fmt.Sprintf("removed /cron task (ID:%s).", cmd.TaskID)}
}

func (s *Service) handleEnable(cmd *Command, owner Owner, now time.Time) Result {
	task, err := s.store.ResolveForOwner(owner.UserID, cmd.TaskID)
	if err != nil {
		return Result{Reply: resolveErrorReply(err)}
	}
	if task.Enabled && task.Status == StatusScheduled {
		return Result{Reply: fmt.Sprintf("task is already enabled (ID:%s).", shortID(task.ID))}
	}
	if task.Status == StatusCompleted {
		return Result{Reply: "task is already completed and cannot be re-enabled."}
	}
	next := task.NextRunAt
	if next == nil || !next.After(now) {
		next, err = schedule.NextRun(task.Schedule, now, task.LastRunAt)
		if err != nil {
			return Result{Reply: err.Error()}
		}
		if next == nil {
			return Result{Reply: "the task has no future trigger time left, please create it again."}
		}
	}
	enabled := true
	status := StatusScheduled
	updated, err := s.store.Apply(task.ID, TaskUpdate{
		Enabled:      &enabled,
		Status:       &status,
		SetNextRunAt: true,
		NextRunAt:    next,
	})
	if err != nil {
		s.logger.Error("failed to enable task", err,
			logger.Field{Key: "task_id", Value: task.ID})
		return Result{Reply: "failed to enable the task, please try again later."}
	}
	return Result{Reply: fmt.Sprintf("enabled task (ID:%s, next run: %s).",
		shortID(updated.ID), next.Format(displayLayout))}
}

func (s *Service) handleDisable(cmd *Command, owner Owner) Result {
	task, err := s.store.ResolveForOwner(owner.UserID, cmd.TaskID)
	if err != nil {
		return Result{Reply: resolveErrorReply(err)}
	}
	if !task.Enabled && task.Status == StatusPaused {
		return Result{Reply: fmt.Sprintf("task is already disabled (ID:%s).", shortID(task.ID))}
	}
	updated, err := s.store.MarkDisabled(task.ID, false)
	if err != nil {
		s.logger.Error("failed to disable task", err,
			logger.Field{Key: "task_id", Value: task.ID})
		return Result{Reply: "failed to disable the task, please try again later."}
	}
	return Result{Reply: fmt.Sprintf("disabled task (ID:%s).", shortID(updated.ID))}
}

// resolveErrorReply turns id-resolution failures into user-facing text.
// The wording never reveals whether the id exists for another owner.
func resolveErrorReply(err error) string {
	if errors.Is(err, ErrAmbiguousID) {
		return "multiple tasks match this id, please provide more characters."
	}
	return "task not found."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatParseError returns the validation error verbatim with a usage
// example matching the attempted action.
func formatParseError(cmd *Command) string {
	errText := cmd.Errors[0]
	switch cmd.Action {
	case ActionAdd:
		switch {
		case strings.Contains(errText, "every requires"):
			return errText + "\ne.g.: /cron add every 300 stretch break | stand up and walk"
		case strings.Contains(errText, "at requires"):
			return errText + "\ne.g.: /cron add at 2026-02-11T23:50 one-off reminder | meeting at 23:50"
		case strings.Contains(errText, "cron"):
			return errText + "\ne.g.: /cron add cron \"*/30 * * * *\" half-hour reminder | time to move"
		default:
			return errText + "\ne.g.: /cron add every 60 drink water | please drink water"
		}
	case ActionList:
		return errText + "\ne.g.: /cron list scheduled"
	case ActionRemove, ActionEnable, ActionDisable:
		return errText + "\ne.g.: /cron " + cmd.Action + " abcd1234"
	case ActionInvalid:
		return errText + "\ne.g.: /cron help"
	default:
		return errText + "\nsee /cron help for the full usage."
	}
}

func helpText() string {
	return "Usage:\n" +
		"/cron add at <YYYY-MM-DDTHH:MM> <name> | <message>\n" +
		"/cron add every <seconds> <name> | <message>\n" +
		"/cron add cron \"<min hour day month weekday>\" <name> | <message>\n" +
		"/cron list [scheduled|paused|completed|failed]\n" +
		"/cron remove <task_id>\n" +
		"/cron enable <task_id>\n" +
		"/cron disable <task_id>"
}
