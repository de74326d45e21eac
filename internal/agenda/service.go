package agenda

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/logger"
)

const displayLayout = "2006-01-02 15:04"

// ListRange selects which events List renders.
type ListRange string

const (
	ListDefault   ListRange = "default"
	ListAll       ListRange = "all"
	ListCompleted ListRange = "completed"
)

// Result carries the user-facing reply of an agenda operation.
type Result struct {
	Reply string
}

// Service implements one-off event management on top of the event and
// reminder stores.
type Service struct {
	events    *EventStore
	reminders *ReminderStore
	logger    *logger.Logger
}

// NewService creates an agenda service.
func NewService(events *EventStore, reminders *ReminderStore, log *logger.Logger) *Service {
	return &Service{events: events, reminders: reminders, logger: log}
}

// Add creates a scheduled event together with its pending reminder.
func (s *Service) Add(userID, chatID, title string, startTime time.Time, now time.Time) Result {
	if title == "" {
		return Result{Reply: "what should I remind you about? please include a short description."}
	}
	if !startTime.After(now) {
		return Result{Reply: "that time has already passed, please pick a future one."}
	}
	event, err := s.events.Create(userID, chatID, title, startTime)
	if err != nil {
		s.logger.Error("failed to create event", err,
			logger.Field{Key: "user_id", Value: userID})
		return Result{Reply: "could not save the event, please try again."}
	}
	if _, err := s.reminders.Create(event.ID, event.StartTime); err != nil {
		s.logger.Error("failed to create reminder", err,
			logger.Field{Key: "event_id", Value: event.ID})
	}
	return Result{Reply: fmt.Sprintf("event created: %s %s (ID:%s)",
		event.StartTime.Format(displayLayout), event.Title, event.ID[:8])}
}

// AddFromText extracts a date, time and title from free text and adds
// the event. Text without a recognizable time yields a clarification.
func (s *Service) AddFromText(userID, chatID, text string, now time.Time) Result {
	startTime, title, ok := ParseWhen(text, now)
	if !ok {
		return Result{Reply: "I couldn't find a date and time, please include one, e.g. \"remind me tomorrow at 10:00 to join the meeting\"."}
	}
	return s.Add(userID, chatID, title, startTime, now)
}

// List renders the user's events, soonest first.
func (s *Service) List(userID string, rng ListRange) Result {
	events := s.events.List(userID)
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	switch rng {
	case ListCompleted:
		lines := formatEvents(events, func(e Event) bool { return e.Status == EventCompleted })
		if len(lines) == 0 {
			return Result{Reply: "no completed events."}
		}
		return Result{Reply: "completed events:\n" + strings.Join(lines, "\n")}
	case ListAll:
		lines := formatEvents(events, func(e Event) bool { return e.Status != EventCancelled })
		if len(lines) == 0 {
			return Result{Reply: "no events yet."}
		}
		return Result{Reply: "all events:\n" + strings.Join(lines, "\n")}
	default:
		lines := formatEvents(events, func(e Event) bool { return e.Status == EventScheduled })
		if len(lines) == 0 {
			return Result{Reply: "no upcoming events. you can also ask for completed ones."}
		}
		return Result{Reply: "your events:\n" + strings.Join(lines, "\n")}
	}
}

// Complete marks the event matching the id prefix as completed.
func (s *Service) Complete(userID, idPrefix string) Result {
	event, reply := s.resolve(userID, idPrefix)
	if reply != "" {
		return Result{Reply: reply}
	}
	if _, ok := s.events.SetStatus(event.ID, EventCompleted); !ok {
		return Result{Reply: "could not update the event, please try again."}
	}
	return Result{Reply: fmt.Sprintf("event completed (ID:%s)", event.ID[:8])}
}

// Cancel marks the event matching the id prefix as cancelled and
// invalidates any pending reminder for it.
func (s *Service) Cancel(userID, idPrefix string) Result {
	event, reply := s.resolve(userID, idPrefix)
	if reply != "" {
		return Result{Reply: reply}
	}
	if _, ok := s.events.SetStatus(event.ID, EventCancelled); !ok {
		return Result{Reply: "could not update the event, please try again."}
	}
	s.reminders.InvalidatePendingByEvent(event.ID, "event_updated")
	return Result{Reply: fmt.Sprintf("event cancelled (ID:%s)", event.ID[:8])}
}

// resolve finds the user's single event whose id starts with prefix.
// The reply is non-empty on failure and never reveals other users'
// events.
func (s *Service) resolve(userID, prefix string) (Event, string) {
	if prefix == "" {
		return Event{}, "please provide an event ID, you can list events first."
	}
	var matches []Event
	for _, event := range s.events.List(userID) {
		if strings.HasPrefix(event.ID, prefix) {
			matches = append(matches, event)
		}
	}
	switch len(matches) {
	case 0:
		return Event{}, "event not found."
	case 1:
		return matches[0], ""
	default:
		return Event{}, "that ID matches more than one event, please use a longer prefix."
	}
}

func formatEvents(events []Event, keep func(Event) bool) []string {
	var lines []string
	for _, event := range events {
		if !keep(event) {
			continue
		}
		line := fmt.Sprintf("- [%s] %s %s",
			event.ID[:8], event.StartTime.Format(displayLayout), event.Title)
		if event.Status == EventCompleted {
			line += " (completed)"
		}
		lines = append(lines, line)
	}
	return lines
}
