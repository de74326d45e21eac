package agenda

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

var (
	whenDatePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	whenDayMarker     = regexp.MustCompile(`\bday\s+after\s+tomorrow\b|\btomorrow\b|\btoday\b`)
	whenPeriodPrefix  = `(?:(morning|afternoon|evening|tonight|noon)\s+)?`
	whenDigitalTime   = regexp.MustCompile(whenPeriodPrefix + `(?:at\s+)?(\d{1,2}):(\d{2})\b`)
	whenHourToken     = `(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`
	whenOClockTime    = regexp.MustCompile(whenPeriodPrefix + `(?:at\s+)?` + whenHourToken + `\s+o'?clock(\s+and\s+a\s+half)?\b`)
	whenHalfPastTime  = regexp.MustCompile(whenPeriodPrefix + `(?:at\s+)?half\s+past\s+` + whenHourToken + `\b`)
	whenLeadInPattern = regexp.MustCompile(`^(?:please\s+)?(?:remind\s+(?:me\s+)?(?:to\s+|about\s+|of\s+)?|add\s+(?:an?\s+)?event\s*|schedule\s+)?`)
)

var whenHourWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// ParseWhen extracts a one-off start time and a title from free text.
// A clock time is required; the date defaults to today when only a time
// is given. It reports ok=false when no time can be found.
func ParseWhen(text string, now time.Time) (time.Time, string, bool) {
	cleaned := strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
	if cleaned == "" {
		return time.Time{}, "", false
	}
	lowered := strings.ToLower(cleaned)

	hour, minute, ok := extractClock(lowered)
	if !ok {
		return time.Time{}, "", false
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, "", false
	}

	day := now
	if match := whenDatePattern.FindString(lowered); match != "" {
		parsed, found := schedule.ParseInstant(match + "T00:00:00")
		if !found {
			return time.Time{}, "", false
		}
		day = parsed
	} else if match := whenDayMarker.FindString(lowered); match != "" {
		switch {
		case strings.HasPrefix(match, "day after"):
			day = now.AddDate(0, 0, 2)
		case match == "tomorrow":
			day = now.AddDate(0, 0, 1)
		}
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
	return start, extractEventTitle(lowered), true
}

func extractClock(text string) (hour, minute int, ok bool) {
	if match := whenDigitalTime.FindStringSubmatch(text); match != nil {
		h, _ := strconv.Atoi(match[2])
		m, _ := strconv.Atoi(match[3])
		return adjustHour(match[1], h), m, true
	}
	if match := whenHalfPastTime.FindStringSubmatch(text); match != nil {
		if h, found := parseHour(match[2]); found {
			return adjustHour(match[1], h), 30, true
		}
	}
	if match := whenOClockTime.FindStringSubmatch(text); match != nil {
		if h, found := parseHour(match[2]); found {
			minute := 0
			if match[3] != "" {
				minute = 30
			}
			return adjustHour(match[1], h), minute, true
		}
	}
	return 0, 0, false
}

func parseHour(token string) (int, bool) {
	if n, err := strconv.Atoi(token); err == nil {
		return n, true
	}
	n, ok := whenHourWords[token]
	return n, ok
}

// adjustHour applies the period-of-day word: afternoon and evening push
// hours below 12 into the PM range, morning 12 becomes 0.
func adjustHour(period string, hour int) int {
	switch period {
	case "afternoon", "evening", "tonight":
		if hour < 12 {
			return hour + 12
		}
	case "morning":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// extractEventTitle strips the lead-in verb and every recognized date
// and time phrase, leaving the subject of the event.
func extractEventTitle(text string) string {
	candidate := whenLeadInPattern.ReplaceAllString(text, "")
	for _, pattern := range []*regexp.Regexp{
		whenDatePattern,
		whenDayMarker,
		whenDigitalTime,
		whenHalfPastTime,
		whenOClockTime,
	} {
		candidate = pattern.ReplaceAllString(candidate, " ")
	}
	candidate = strings.Join(strings.Fields(candidate), " ")
	candidate = strings.TrimPrefix(candidate, "to ")
	candidate = strings.TrimPrefix(candidate, "at ")
	return strings.Trim(candidate, " .,!?;:")
}
