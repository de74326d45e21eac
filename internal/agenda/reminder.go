package agenda

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

// RemindersFilename is the file holding the reminder collection.
const RemindersFilename = "reminders.json"

// ReminderStatus is the lifecycle state of a one-off reminder.
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

// Reminder is the deliverable companion of one event: it fires once at
// TriggerTime and is then marked sent or failed, never retried.
type Reminder struct {
	ID          string
	EventID     string
	TriggerTime time.Time
	Status      ReminderStatus
	LastError   string
}

type reminderRecord struct {
	ReminderID  string `json:"reminder_id"`
	EventID     string `json:"event_id"`
	TriggerTime string `json:"trigger_time"`
	Status      string `json:"status"`
	LastError   string `json:"last_error"`
}

// ReminderStore persists reminders with the shared atomic-write
// discipline.
type ReminderStore struct {
	path   string
	logger *logger.Logger
}

// NewReminderStore creates a reminder store rooted at dataDir.
func NewReminderStore(dataDir string, log *logger.Logger) *ReminderStore {
	return &ReminderStore{
		path:   filepath.Join(dataDir, RemindersFilename),
		logger: log,
	}
}

// ListPending returns reminders that have not been consumed yet.
func (s *ReminderStore) ListPending() []Reminder {
	var pending []Reminder
	for _, reminder := range s.load() {
		if reminder.Status == ReminderPending {
			pending = append(pending, reminder)
		}
	}
	return pending
}

// Create adds a pending reminder for the event.
func (s *ReminderStore) Create(eventID string, triggerTime time.Time) (Reminder, error) {
	reminder := Reminder{
		ID:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		EventID:     eventID,
		TriggerTime: triggerTime,
		Status:      ReminderPending,
	}
	reminders := s.load()
	reminders = append(reminders, reminder)
	if err := s.save(reminders); err != nil {
		return Reminder{}, fmt.Errorf("failed to persist reminder: %w", err)
	}
	return reminder, nil
}

// MarkSent consumes the reminder successfully.
func (s *ReminderStore) MarkSent(reminderID string) {
	s.updateStatus(reminderID, ReminderSent, "")
}

// MarkFailed consumes the reminder with an error; there is no retry.
func (s *ReminderStore) MarkFailed(reminderID, errText string) {
	s.updateStatus(reminderID, ReminderFailed, errText)
}

// InvalidatePendingByEvent fails every pending reminder of the event
// with the given reason. It returns the number of reminders touched.
func (s *ReminderStore) InvalidatePendingByEvent(eventID, reason string) int {
	reminders := s.load()
	updated := 0
	for i := range reminders {
		if reminders[i].EventID != eventID || reminders[i].Status != ReminderPending {
			continue
		}
		reminders[i].Status = ReminderFailed
		reminders[i].LastError = reason
		updated++
	}
	if updated > 0 {
		if err := s.save(reminders); err != nil {
			s.logger.Error("failed to persist invalidated reminders", err,
				logger.Field{Key: "event_id", Value: eventID})
			return 0
		}
	}
	return updated
}

// PruneConsumed removes sent and failed reminders that triggered before
// cutoff, keeping the file from growing without bound.
func (s *ReminderStore) PruneConsumed(cutoff time.Time) int {
	reminders := s.load()
	kept := reminders[:0]
	removed := 0
	for _, reminder := range reminders {
		if reminder.Status != ReminderPending && reminder.TriggerTime.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, reminder)
	}
	if removed > 0 {
		if err := s.save(kept); err != nil {
			s.logger.Error("failed to persist pruned reminders", err)
			return 0
		}
	}
	return removed
}

func (s *ReminderStore) updateStatus(reminderID string, status ReminderStatus, errText string) {
	reminders := s.load()
	for i := range reminders {
		if reminders[i].ID != reminderID {
			continue
		}
		reminders[i].Status = status
		reminders[i].LastError = errText
		break
	}
	if err := s.save(reminders); err != nil {
		s.logger.Error("failed to persist reminder status", err,
			logger.Field{Key: "reminder_id", Value: reminderID})
	}
}

func (s *ReminderStore) load() []Reminder {
	records, skipped := storage.LoadArray[reminderRecord](s.path)
	if skipped > 0 {
		s.logger.Warn("skipped unreadable reminder records",
			logger.Field{Key: "file", Value: s.path},
			logger.Field{Key: "skipped", Value: skipped})
	}
	reminders := make([]Reminder, 0, len(records))
	for _, record := range records {
		if record.ReminderID == "" || record.TriggerTime == "" {
			continue
		}
		triggerTime, ok := schedule.ParseInstant(record.TriggerTime)
		if !ok {
			continue
		}
		status := ReminderStatus(record.Status)
		switch status {
		case ReminderPending, ReminderSent, ReminderFailed:
		default:
			status = ReminderPending
		}
		reminders = append(reminders, Reminder{
			ID:          record.ReminderID,
			EventID:     record.EventID,
			TriggerTime: triggerTime,
			Status:      status,
			LastError:   record.LastError,
		})
	}
	return reminders
}

func (s *ReminderStore) save(reminders []Reminder) error {
	records := make([]reminderRecord, 0, len(reminders))
	for _, reminder := range reminders {
		records = append(records, reminderRecord{
			ReminderID:  reminder.ID,
			EventID:     reminder.EventID,
			TriggerTime: reminder.TriggerTime.Format(schedule.TimeLayout),
			Status:      string(reminder.Status),
			LastError:   reminder.LastError,
		})
	}
	return storage.SaveArray(s.path, records)
}
