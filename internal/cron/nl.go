package cron

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Intent kinds produced by the natural-language extractor.
const (
	IntentRepeating   = "repeating"
	IntentSingleEvent = "single_event"
	IntentUnknown     = "unknown"
)

// NLParseResult is the outcome of extracting a schedule from free text.
// A repeating result is valid only when kind, value and title are all
// present; unknown results carry a reason and a clarification hint.
type NLParseResult struct {
	IntentKind        string
	ScheduleKind      string
	ScheduleValue     string
	Title             string
	Message           string
	Reason            string
	ClarificationHint string
}

// Valid reports whether the result can directly create a recurring task.
func (r NLParseResult) Valid() bool {
	return r.IntentKind == IntentRepeating && r.ScheduleKind != "" && r.ScheduleValue != "" && r.Title != ""
}

// NLParser is a deliberately heuristic keyword and pattern matcher, not
// a learned classifier. It recognizes interval phrasing ("every N
// seconds/minutes/hours"), daily and weekly recurrence with a clock
// time, and one-off date markers ("today", "tomorrow", explicit dates).
type NLParser struct{}

var (
	nlIntervalPattern = regexp.MustCompile(`\bevery\s+(\d+)\s+(second|minute|hour)s?\b`)
	nlDailyPattern    = regexp.MustCompile(`\bevery\s+day\b|\bdaily\b`)
	nlWeeklyPattern   = regexp.MustCompile(`\bevery\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	nlDatePattern     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

	nlPeriodPrefix    = `(?:(morning|afternoon|evening|tonight|noon)\s+)?`
	nlDigitalTime     = regexp.MustCompile(nlPeriodPrefix + `(?:at\s+)?(\d{1,2}):(\d{2})\b`)
	nlNumberToken     = `(\d{1,2}|[a-z]+(?:[ -][a-z]+)?)`
	nlOClockTime      = regexp.MustCompile(nlPeriodPrefix + `(?:at\s+)?` + nlNumberToken + `\s+o'?clock(\s+and\s+a\s+half)?\b`)
	nlHalfPastTime    = regexp.MustCompile(nlPeriodPrefix + `(?:at\s+)?half\s+past\s+` + nlNumberToken + `\b`)
	nlSingleDayMarker = regexp.MustCompile(`\bday\s+after\s+tomorrow\b|\btomorrow\b|\btoday\b`)

	nlRemindPattern = regexp.MustCompile(`\bremind\s+(?:me\s+)?(?:to\s+|about\s+|of\s+)?(.*)$`)

	nlWeekdayNumbers = map[string]int{
		"sunday":    0,
		"monday":    1,
		"tuesday":   2,
		"wednesday": 3,
		"thursday":  4,
		"friday":    5,
		"saturday":  6,
	}
)

// Parse extracts a schedule signal from text. It returns nil when the
// text carries no schedule-relevant signal, including any slash command.
func (p NLParser) Parse(text string, now time.Time) *NLParseResult {
	_ = now // reserved for relative-time resolution
	cleaned := cleanText(text)
	if cleaned == "" || strings.HasPrefix(cleaned, "/") {
		return nil
	}
	lowered := strings.ToLower(cleaned)

	hasRepeat := p.hasRepeatMarker(lowered)
	hasSingle := p.hasSingleMarker(lowered)

	if hasRepeat && hasSingle {
		return &NLParseResult{
			IntentKind: IntentUnknown,
			Reason:     "mixed_repeat_single",
			ClarificationHint: "Your request mixes one-off and repeating phrasing, please pick one:\n" +
				"- one-off: tomorrow 14:00 meeting\n" +
				"- repeating: every day at 14:00 remind me to join the meeting",
		}
	}

	if hasRepeat {
		return p.parseRepeating(lowered)
	}

	if hasSingle && p.hasTimeHint(lowered) {
		return &NLParseResult{
			IntentKind: IntentSingleEvent,
			Reason:     "single_event_detected",
		}
	}

	return nil
}

func (p NLParser) parseRepeating(text string) *NLParseResult {
	if seconds, ok := parseInterval(text); ok {
		title := extractTitle(text)
		if title == "" {
			return missingTitle()
		}
		return &NLParseResult{
			IntentKind:    IntentRepeating,
			ScheduleKind:  "every",
			ScheduleValue: strconv.Itoa(seconds),
			Title:         title,
			Message:       title,
			Reason:        "interval_detected",
		}
	}

	if nlDailyPattern.MatchString(text) {
		hour, minute, ok := parseClock(text)
		if !ok {
			return missingTime()
		}
		title := extractTitle(text)
		if title == "" {
			return missingTitle()
		}
		return &NLParseResult{
			IntentKind:    IntentRepeating,
			ScheduleKind:  "cron",
			ScheduleValue: fmt.Sprintf("%d %d * * *", minute, hour),
			Title:         title,
			Message:       title,
			Reason:        "daily_detected",
		}
	}

	if weekly := nlWeeklyPattern.FindStringSubmatch(text); weekly != nil {
		hour, minute, ok := parseClock(text)
		if !ok {
			return missingTime()
		}
		title := extractTitle(text)
		if title == "" {
			return missingTitle()
		}
		weekday := nlWeekdayNumbers[weekly[1]]
		return &NLParseResult{
			IntentKind:    IntentRepeating,
			ScheduleKind:  "cron",
			ScheduleValue: fmt.Sprintf("%d %d * * %d", minute, hour, weekday),
			Title:         title,
			Message:       title,
			Reason:        "weekly_detected",
		}
	}

	return &NLParseResult{
		IntentKind: IntentUnknown,
		Reason:     "unsupported_repeat_pattern",
		ClarificationHint: "Supported phrasings, for example:\n" +
			"- every day at 9:00 remind me to drink water\n" +
			"- every 30 minutes remind me to stand up\n" +
			"- every monday 18:20 remind me to send the weekly report",
	}
}

func (p NLParser) hasRepeatMarker(text string) bool {
	if !strings.Contains(text, "remind") {
		return false
	}
	if nlDailyPattern.MatchString(text) || nlWeeklyPattern.MatchString(text) {
		return true
	}
	return nlIntervalPattern.MatchString(text)
}

func (p NLParser) hasSingleMarker(text string) bool {
	return nlSingleDayMarker.MatchString(text) || nlDatePattern.MatchString(text)
}

func (p NLParser) hasTimeHint(text string) bool {
	return nlDigitalTime.MatchString(text) ||
		nlHalfPastTime.MatchString(text) ||
		matchOClock(text) != nil
}

// parseInterval converts "every N seconds/minutes/hours" to seconds.
func parseInterval(text string) (int, bool) {
	match := nlIntervalPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil || amount <= 0 {
		return 0, false
	}
	switch match[2] {
	case "second":
		return amount, true
	case "minute":
		return amount * 60, true
	default:
		return amount * 60 * 60, true
	}
}

type oClockMatch struct {
	period string
	hour   int
	half   bool
}

// matchOClock finds "N o'clock[ and a half]" or "half past N" phrasing,
// with digits or spelled-out numerals.
func matchOClock(text string) *oClockMatch {
	if match := nlHalfPastTime.FindStringSubmatch(text); match != nil {
		if hour, ok := parseHourToken(match[2]); ok {
			return &oClockMatch{period: match[1], hour: hour, half: true}
		}
	}
	if match := nlOClockTime.FindStringSubmatch(text); match != nil {
		if hour, ok := parseHourToken(match[2]); ok {
			return &oClockMatch{period: match[1], hour: hour, half: match[3] != ""}
		}
	}
	return nil
}

// parseClock extracts a 24-hour clock time from text: digital "H:MM"
// first, then o'clock phrasing, both with optional period-of-day words.
func parseClock(text string) (hour, minute int, ok bool) {
	if match := nlDigitalTime.FindStringSubmatch(text); match != nil {
		h, _ := strconv.Atoi(match[2])
		m, _ := strconv.Atoi(match[3])
		return normalizeHour(match[1], h), m, true
	}
	if match := matchOClock(text); match != nil {
		minute := 0
		if match.half {
			minute = 30
		}
		return normalizeHour(match.period, match.hour), minute, true
	}
	return 0, 0, false
}

// normalizeHour applies the period-of-day prefix: afternoon and evening
// push hours below 12 into the PM range, morning 12 becomes 0, noon is
// taken literally.
func normalizeHour(period string, hour int) int {
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

// parseHourToken accepts digits or spelled-out numerals up to 99
// ("nine", "twenty one", "twenty-one").
func parseHourToken(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	return parseNumberWord(token)
}

var nlUnitWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19,
}

var nlTensWords = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

func parseNumberWord(token string) (int, bool) {
	if n, ok := nlUnitWords[token]; ok {
		return n, true
	}
	if n, ok := nlTensWords[token]; ok {
		return n, true
	}
	parts := strings.FieldsFunc(token, func(r rune) bool { return r == ' ' || r == '-' })
	if len(parts) == 2 {
		tens, okTens := nlTensWords[parts[0]]
		unit, okUnit := nlUnitWords[parts[1]]
		if okTens && okUnit && unit < 10 {
			return tens + unit, true
		}
	}
	return 0, false
}

// extractTitle isolates the reminder subject: the text after the remind
// marker with every recognized schedule phrase stripped out.
func extractTitle(text string) string {
	match := nlRemindPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	candidate := match[1]
	for _, pattern := range []*regexp.Regexp{
		nlIntervalPattern,
		nlDailyPattern,
		nlWeeklyPattern,
		nlDigitalTime,
		nlHalfPastTime,
		nlOClockTime,
		nlDatePattern,
		nlSingleDayMarker,
	} {
		candidate = pattern.ReplaceAllString(candidate, " ")
	}
	candidate = strings.Join(strings.Fields(candidate), " ")
	candidate = strings.TrimPrefix(candidate, "to ")
	candidate = strings.Trim(candidate, " .,!?;:")
	return candidate
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
}

func missingTime() *NLParseResult {
	return &NLParseResult{
		IntentKind: IntentUnknown,
		Reason:     "missing_time",
		ClarificationHint: "Please add a reminder time, for example:\n" +
			"- every day at 9:00 remind me to drink water\n" +
			"- every monday 18:20 remind me to send the weekly report",
	}
}

func missingTitle() *NLParseResult {
	return &NLParseResult{
		IntentKind: IntentUnknown,
		Reason:     "missing_title",
		ClarificationHint: "Please add what to remind you about, for example:\n" +
			"- every 30 minutes remind me to stand up\n" +
			"- every day at 9:00 remind me to drink water",
	}
}
