package cron

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
	"github.com/CafeDonggua/c-dong-bot/internal/storage"
)

// TasksFilename is the file holding the full task collection.
const TasksFilename = "tasks.json"

// Store persists tasks in one JSON file with atomic replace-on-write.
// It performs whole-file read-modify-write on every mutation; callers
// must serialize access to a given Store instance (single writer).
type Store struct {
	path   string
	logger *logger.Logger
}

// NewStore creates a task store rooted at dataDir.
func NewStore(dataDir string, log *logger.Logger) *Store {
	return &Store{
		path:   filepath.Join(dataDir, TasksFilename),
		logger: log,
	}
}

// ListFilter is a conjunctive task filter; zero values leave the
// corresponding dimension unconstrained.
type ListFilter struct {
	OwnerUserID string
	Status      Status
	Enabled     *bool
}

// Create adds a new task with a collision-checked unique id. New tasks
// start enabled and scheduled.
func (s *Store) Create(ownerUserID, ownerChatID, name, message string, d schedule.Descriptor, nextRunAt *time.Time) (Task, error) {
	tasks := s.load()
	now := time.Now()
	task := Task{
		ID:          s.newTaskID(tasks),
		OwnerUserID: ownerUserID,
		OwnerChatID: ownerChatID,
		Name:        name,
		Message:     message,
		Schedule:    d,
		Enabled:     true,
		Status:      StatusScheduled,
		NextRunAt:   nextRunAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tasks = append(tasks, task)
	if err := s.save(tasks); err != nil {
		return Task{}, fmt.Errorf("failed to persist task: %w", err)
	}
	return task, nil
}

// List returns tasks matching every supplied filter dimension.
func (s *Store) List(filter ListFilter) []Task {
	var matched []Task
	for _, task := range s.load() {
		if filter.OwnerUserID != "" && task.OwnerUserID != filter.OwnerUserID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Enabled != nil && task.Enabled != *filter.Enabled {
			continue
		}
		matched = append(matched, task)
	}
	return matched
}

// ListDue returns enabled, scheduled tasks whose next trigger has arrived.
func (s *Store) ListDue(now time.Time) []Task {
	var due []Task
	for _, task := range s.load() {
		if !task.Enabled || task.Status != StatusScheduled {
			continue
		}
		if task.NextRunAt != nil && !task.NextRunAt.After(now) {
			due = append(due, task)
		}
	}
	return due
}

// Get returns the task with the exact id, or ErrNotFound.
func (s *Store) Get(taskID string) (Task, error) {
	for _, task := range s.load() {
		if task.ID == taskID {
			return task, nil
		}
	}
	return Task{}, ErrNotFound
}

// ResolveForOwner resolves an id prefix within the owner's own tasks.
// The search space is pre-filtered to the owner, so another owner's task
// can never be discovered through a prefix collision.
func (s *Store) ResolveForOwner(ownerUserID, idPrefix string) (Task, error) {
	var matches []Task
	for _, task := range s.List(ListFilter{OwnerUserID: ownerUserID}) {
		if strings.HasPrefix(task.ID, idPrefix) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return Task{}, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return Task{}, ErrAmbiguousID
	}
}

// Apply applies a partial update to the task, bumping updated_at unless
// the update supplies its own timestamp.
func (s *Store) Apply(taskID string, update TaskUpdate) (Task, error) {
	tasks := s.load()
	for i := range tasks {
		if tasks[i].ID != taskID {
			continue
		}
		update.applyTo(&tasks[i], time.Now())
		if err := s.save(tasks); err != nil {
			return Task{}, fmt.Errorf("failed to persist task update: %w", err)
		}
		return tasks[i], nil
	}
	return Task{}, ErrNotFound
}

// MarkDisabled flips enabled and derives status from it. It does not
// recompute next_run_at; re-enabling with a stale trigger is the task
// service's responsibility.
func (s *Store) MarkDisabled(taskID string, enabled bool) (Task, error) {
	status := StatusPaused
	if enabled {
		status = StatusScheduled
	}
	return s.Apply(taskID, TaskUpdate{Enabled: &enabled, Status: &status})
}

// Remove deletes the task. It reports whether anything was removed.
func (s *Store) Remove(taskID string) (bool, error) {
	tasks := s.load()
	kept := tasks[:0]
	removed := false
	for _, task := range tasks {
		if task.ID == taskID {
			removed = true
			continue
		}
		kept = append(kept, task)
	}
	if !removed {
		return false, nil
	}
	if err := s.save(kept); err != nil {
		return false, fmt.Errorf("failed to persist task removal: %w", err)
	}
	return true, nil
}

func (s *Store) newTaskID(existing []Task) string {
	known := make(map[string]bool, len(existing))
	for _, task := range existing {
		known[task.ID] = true
	}
	for {
		candidate := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		if !known[candidate] {
			return candidate
		}
	}
}

func (s *Store) load() []Task {
	records, skipped := storage.LoadArray[taskRecord](s.path)
	if skipped > 0 {
		s.logger.Warn("skipped unreadable task records",
			logger.Field{Key: "file", Value: s.path},
			logger.Field{Key: "skipped", Value: skipped})
	}
	now := time.Now()
	tasks := make([]Task, 0, len(records))
	for _, record := range records {
		if record.TaskID == "" || record.OwnerUserID == "" {
			continue
		}
		tasks = append(tasks, record.toTask(now))
	}
	return tasks
}

func (s *Store) save(tasks []Task) error {
	records := make([]taskRecord, 0, len(tasks))
	for _, task := range tasks {
		records = append(records, recordFromTask(task))
	}
	return storage.SaveArray(s.path, records)
}
