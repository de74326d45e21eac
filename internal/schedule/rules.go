// Package schedule implements the schedule rule engine: it validates
// schedule descriptors ("at" instants, "every" intervals, 5-field cron
// expressions) and computes the next trigger instant for a descriptor
// relative to a reference time. All functions are pure; callers own
// persistence and clocks.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies how a schedule value is interpreted.
type Kind string

const (
	// KindAt is a one-off instant, value is an ISO date-time.
	KindAt Kind = "at"
	// KindEvery is a fixed interval, value is a positive integer of seconds.
	KindEvery Kind = "every"
	// KindCron is a 5-field cron expression (minute hour dom month dow).
	KindCron Kind = "cron"
)

// TimeLayout is the canonical layout for persisted and displayed instants.
const TimeLayout = "2006-01-02T15:04:05"

// Sentinel errors returned by Normalize and NextRun. The messages are
// user-facing; the task service returns them verbatim.
var (
	ErrInvalidKind      = errors.New("unsupported schedule kind, use at, every or cron")
	ErrInvalidValue     = errors.New("invalid schedule value")
	ErrInvalidCronField = errors.New("invalid cron field")
)

// Descriptor is a validated (kind, value) pair.
type Descriptor struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// cron next-run search is bounded so it always terminates, even for
// expressions with no future occurrence (e.g. "0 0 31 2 *").
const cronHorizon = 366 * 24 * time.Hour

// Normalize validates kind and value and returns a canonical Descriptor:
// "at" values are canonicalized to the TimeLayout form, "every" values to
// a bare integer, "cron" values to single-space separated fields.
func Normalize(kind, value string) (Descriptor, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))
	v := strings.TrimSpace(value)
	switch k {
	case KindAt, KindEvery, KindCron:
	default:
		return Descriptor{}, ErrInvalidKind
	}
	if v == "" {
		return Descriptor{}, fmt.Errorf("%w: missing schedule value", ErrInvalidValue)
	}
	switch k {
	case KindAt:
		at, ok := ParseInstant(v)
		if !ok {
			return Descriptor{}, fmt.Errorf("%w: at requires a date-time such as 2026-02-11T09:00", ErrInvalidValue)
		}
		return Descriptor{Kind: KindAt, Value: at.Format(TimeLayout)}, nil
	case KindEvery:
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return Descriptor{}, fmt.Errorf("%w: every requires a positive integer of seconds", ErrInvalidValue)
		}
		return Descriptor{Kind: KindEvery, Value: strconv.Itoa(seconds)}, nil
	default:
		fields := strings.Fields(v)
		if len(fields) != 5 {
			return Descriptor{}, fmt.Errorf("%w: cron requires 5 fields (minute hour day month weekday)", ErrInvalidValue)
		}
		if _, err := parseCronFields(strings.Join(fields, " ")); err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Kind: KindCron, Value: strings.Join(fields, " ")}, nil
	}
}

// NextRun computes the next trigger strictly after reference, or nil when
// the descriptor has no future occurrence. For interval schedules the
// stepping is anchored to lastRun when available, so a task resumes its
// cadence after downtime instead of firing immediately.
func NextRun(d Descriptor, reference time.Time, lastRun *time.Time) (*time.Time, error) {
	norm, err := Normalize(string(d.Kind), d.Value)
	if err != nil {
		return nil, err
	}
	switch norm.Kind {
	case KindAt:
		at, ok := ParseInstant(norm.Value)
		if !ok || !at.After(reference) {
			return nil, nil
		}
		return &at, nil
	case KindEvery:
		seconds, _ := strconv.Atoi(norm.Value)
		step := time.Duration(seconds) * time.Second
		anchor := reference
		if lastRun != nil {
			anchor = *lastRun
		}
		candidate := anchor.Add(step)
		for !candidate.After(reference) {
			candidate = candidate.Add(step)
		}
		return &candidate, nil
	default:
		fields, err := parseCronFields(norm.Value)
		if err != nil {
			return nil, err
		}
		return fields.next(reference), nil
	}
}

// ParseInstant parses a date-time with either "T" or a space between the
// date and time parts, with or without seconds.
func ParseInstant(value string) (time.Time, bool) {
	normalized := strings.Replace(strings.TrimSpace(value), " ", "T", 1)
	for _, layout := range []string{TimeLayout, "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, normalized, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// cronFields is a parsed 5-field cron expression. Weekday 7 is already
// folded into 0 (Sunday).
type cronFields struct {
	minutes map[int]bool
	hours   map[int]bool
	dom     map[int]bool
	months  map[int]bool
	dow     map[int]bool
	domAny  bool
	dowAny  bool
}

func parseCronFields(expression string) (cronFields, error) {
	parts := strings.Fields(expression)
	if len(parts) != 5 {
		return cronFields{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidCronField, len(parts))
	}
	minutes, err := parseField(parts[0], 0, 59)
	if err != nil {
		return cronFields{}, err
	}
	hours, err := parseField(parts[1], 0, 23)
	if err != nil {
		return cronFields{}, err
	}
	dom, err := parseField(parts[2], 1, 31)
	if err != nil {
		return cronFields{}, err
	}
	months, err := parseField(parts[3], 1, 12)
	if err != nil {
		return cronFields{}, err
	}
	rawDow, err := parseField(parts[4], 0, 7)
	if err != nil {
		return cronFields{}, err
	}
	dow := make(map[int]bool, len(rawDow))
	for value := range rawDow {
		if value == 7 {
			value = 0
		}
		dow[value] = true
	}
	return cronFields{
		minutes: minutes,
		hours:   hours,
		dom:     dom,
		months:  months,
		dow:     dow,
		domAny:  parts[2] == "*",
		dowAny:  parts[4] == "*",
	}, nil
}

// parseField expands one cron field into its member set. A field is a
// comma-separated list of "*", single integers, or "a-b" ranges, each
// with an optional "/step" suffix.
func parseField(raw string, minimum, maximum int) (map[int]bool, error) {
	values := make(map[int]bool)
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			return nil, fmt.Errorf("%w: empty field element", ErrInvalidCronField)
		}
		base, step, err := splitStep(chunk)
		if err != nil {
			return nil, err
		}
		var start, end int
		switch {
		case base == "*":
			start, end = minimum, maximum
		case strings.Contains(base, "-"):
			bounds := strings.SplitN(base, "-", 2)
			start, err = strconv.Atoi(bounds[0])
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidCronField, bounds[0])
			}
			end, err = strconv.Atoi(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidCronField, bounds[1])
			}
		default:
			start, err = strconv.Atoi(base)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidCronField, base)
			}
			end = start
		}
		if start < minimum || end > maximum || start > end {
			return nil, fmt.Errorf("%w: %q out of range %d-%d", ErrInvalidCronField, chunk, minimum, maximum)
		}
		for value := start; value <= end; value += step {
			values[value] = true
		}
	}
	return values, nil
}

func splitStep(chunk string) (string, int, error) {
	if !strings.Contains(chunk, "/") {
		return chunk, 1, nil
	}
	parts := strings.SplitN(chunk, "/", 2)
	step, err := strconv.Atoi(parts[1])
	if err != nil || step <= 0 {
		return "", 0, fmt.Errorf("%w: step must be a positive integer", ErrInvalidCronField)
	}
	return parts[0], step, nil
}

// next scans minute by minute from the minute after reference (seconds
// truncated) and returns the first matching instant within the horizon.
func (f cronFields) next(reference time.Time) *time.Time {
	candidate := reference.Truncate(time.Minute).Add(time.Minute)
	deadline := reference.Add(cronHorizon)
	for !candidate.After(deadline) {
		if f.matches(candidate) {
			return &candidate
		}
		candidate = candidate.Add(time.Minute)
	}
	return nil
}

func (f cronFields) matches(candidate time.Time) bool {
	if !f.minutes[candidate.Minute()] {
		return false
	}
	if !f.hours[candidate.Hour()] {
		return false
	}
	if !f.months[int(candidate.Month())] {
		return false
	}
	domMatch := f.dom[candidate.Day()]
	dowMatch := f.dow[int(candidate.Weekday())]
	// Vixie cron day rule: when both day fields are restricted a day
	// qualifies if it satisfies either one.
	switch {
	case f.domAny && f.dowAny:
		return true
	case f.domAny:
		return dowMatch
	case f.dowAny:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}
