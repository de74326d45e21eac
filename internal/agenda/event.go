// Package agenda holds one-off calendar events and their companion
// reminders. An event is created once, its reminder is consumed exactly
// once (sent or failed), and nothing here ever recurs; recurring work
// lives in the cron package.
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

// EventsFilename is the file holding the event collection.
const EventsFilename = "events.json"

// EventStatus is the lifecycle state of a one-off event.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is a one-off calendar entry owned by a user.
type Event struct {
	ID        string
	UserID    string
	ChatID    string
	Title     string
	StartTime time.Time
	Status    EventStatus
}

type eventRecord struct {
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	ChatID    string `json:"chat_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	Status    string `json:"status"`
}

// EventStore persists events with the shared atomic-write discipline.
type EventStore struct {
	path   string
	logger *logger.Logger
}

// NewEventStore creates an event store rooted at dataDir.
func NewEventStore(dataDir string, log *logger.Logger) *EventStore {
	return &EventStore{
		path:   filepath.Join(dataDir, EventsFilename),
		logger: log,
	}
}

// List returns the user's events.
func (s *EventStore) List(userID string) []Event {
	var events []Event
	for _, event := range s.load() {
		if event.UserID == userID {
			events = append(events, event)
		}
	}
	return events
}

// Get returns the event with the given id, if it exists.
func (s *EventStore) Get(eventID string) (Event, bool) {
	for _, event := range s.load() {
		if event.ID == eventID {
			return event, true
		}
	}
	return Event{}, false
}

// Create adds a new scheduled event.
func (s *EventStore) Create(userID, chatID, title string, startTime time.Time) (Event, error) {
	event := Event{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    userID,
		ChatID:    chatID,
		Title:     title,
		StartTime: startTime,
		Status:    EventScheduled,
	}
	events := s.load()
	events = append(events, event)
	if err := s.save(events); err != nil {
		return Event{}, fmt.Errorf("failed to persist event: %w", err)
	}
	return event, nil
}

// SetStatus updates the event status. It reports whether the event was
// found.
func (s *EventStore) SetStatus(eventID string, status EventStatus) (Event, bool) {
	events := s.load()
	for i := range events {
		if events[i].ID != eventID {
			continue
		}
		events[i].Status = status
		if err := s.save(events); err != nil {
			s.logger.Error("failed to persist event status", err,
				logger.Field{Key: "event_id", Value: eventID})
			return Event{}, false
		}
		return events[i], true
	}
	return Event{}, false
}

func (s *EventStore) load() []Event {
	records, skipped := storage.LoadArray[eventRecord](s.path)
	if skipped > 0 {
		s.logger.Warn("skipped unreadable event records",
			logger.Field{Key: "file", Value: s.path},
			logger.Field{Key: "skipped", Value: skipped})
	}
	events := make([]Event, 0, len(records))
	for _, record := range records {
		if record.EventID == "" {
			continue
		}
		startTime, ok := schedule.ParseInstant(record.StartTime)
		if !ok {
			continue
		}
		status := EventStatus(record.Status)
		switch status {
		case EventScheduled, EventCompleted, EventCancelled:
		default:
			status = EventScheduled
		}
		events = append(events, Event{
			ID:        record.EventID,
			UserID:    record.UserID,
			ChatID:    record.ChatID,
			Title:     record.Title,
			StartTime: startTime,
			Status:    status,
		})
	}
	return events
}

func (s *EventStore) save(events []Event) error {
	records := make([]eventRecord, 0, len(events))
	for _, event := range events {
		records = append(records, eventRecord{
			EventID:   event.ID,
			UserID:    event.UserID,
			ChatID:    event.ChatID,
			Title:     event.Title,
			StartTime: event.StartTime.Format(schedule.TimeLayout),
			Status:    string(event.Status),
		})
	}
	return storage.SaveArray(s.path, records)
}
