package cron

import (
	"regexp"
	"strings"

	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
)

// Command actions produced by the parser.
const (
	ActionHelp    = "help"
	ActionList    = "list"
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionEnable  = "enable"
	ActionDisable = "disable"
	ActionInvalid = "invalid"
)

var (
	taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,64}$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// Command is a parsed /cron command. Errors carries validation failures;
// a command with errors still names its action so replies can include a
// matching usage example.
type Command struct {
	Action       string
	TaskID       string
	Name         string
	Message      string
	Schedule     schedule.Descriptor
	StatusFilter Status
	Enabled      *bool
	Errors       []string
}

// Valid reports whether the command parsed without validation errors.
func (c Command) Valid() bool { return len(c.Errors) == 0 }

// Parser parses the textual /cron command grammar:
//
//	/cron help
//	/cron list [scheduled|paused|completed|failed]
//	/cron add <at|every|cron> <value...> <name>[|<message>]
//	/cron remove|enable|disable <id-prefix>
type Parser struct{}

// Parse returns the parsed command, or nil when text is not a /cron
// command at all.
func (p Parser) Parse(text string) *Command {
	cleaned := strings.TrimSpace(text)
	if cleaned != "/cron" && !strings.HasPrefix(cleaned, "/cron ") {
		return nil
	}
	body := strings.TrimSpace(strings.TrimPrefix(cleaned, "/cron"))
	if body == "" {
		return &Command{Action: ActionHelp}
	}

	args := strings.Fields(body)
	action := strings.ToLower(args[0])
	tail := strings.TrimSpace(body[len(args[0]):])

	switch action {
	case "help", "h":
		return &Command{Action: ActionHelp}
	case "list", "ls":
		return p.parseList(tail)
	case "remove", "delete", "rm":
		return p.parseTaskAction(ActionRemove, tail)
	case "enable":
		return p.parseTaskAction(ActionEnable, tail)
	case "disable":
		return p.parseTaskAction(ActionDisable, tail)
	case "add":
		return p.parseAdd(tail)
	default:
		return &Command{Action: ActionInvalid, Errors: []string{"unsupported /cron subcommand: " + action}}
	}
}

func (p Parser) parseList(tail string) *Command {
	raw := strings.ToLower(strings.TrimSpace(tail))
	if raw == "" {
		return &Command{Action: ActionList}
	}
	status := Status(raw)
	switch status {
	case StatusScheduled, StatusPaused, StatusCompleted, StatusFailed:
		return &Command{Action: ActionList, StatusFilter: status}
	default:
		return &Command{Action: ActionList, Errors: []string{"unsupported status filter: " + raw}}
	}
}

func (p Parser) parseTaskAction(action, tail string) *Command {
	fields := strings.Fields(tail)
	if len(fields) == 0 {
		return &Command{Action: action, Errors: []string{"missing task id."}}
	}
	taskID := fields[0]
	if !taskIDPattern.MatchString(taskID) {
		return &Command{Action: action, Errors: []string{"invalid task id format."}}
	}
	cmd := &Command{Action: action, TaskID: taskID}
	switch action {
	case ActionEnable:
		enabled := true
		cmd.Enabled = &enabled
	case ActionDisable:
		enabled := false
		cmd.Enabled = &enabled
	}
	return cmd
}

func (p Parser) parseAdd(tail string) *Command {
	body := strings.TrimSpace(tail)
	if body == "" {
		return &Command{Action: ActionAdd, Errors: []string{"missing schedule kind or value."}}
	}
	parts := strings.SplitN(body, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return &Command{Action: ActionAdd, Errors: []string{"missing schedule kind or value."}}
	}
	rawKind := parts[0]
	rawValue, payload := extractScheduleValue(rawKind, parts[1])
	if rawValue == "" {
		return &Command{Action: ActionAdd, Errors: []string{"missing schedule value."}}
	}

	descriptor, err := schedule.Normalize(rawKind, rawValue)
	if err != nil {
		return &Command{Action: ActionAdd, Errors: []string{err.Error()}}
	}

	name, message := splitNameAndMessage(payload)
	if name == "" {
		return &Command{Action: ActionAdd, Errors: []string{"missing task name."}}
	}
	if message == "" {
		message = name
	}
	return &Command{
		Action:   ActionAdd,
		Name:     name,
		Message:  message,
		Schedule: descriptor,
	}
}

// splitNameAndMessage splits "name | message"; without a pipe the name
// doubles as the message.
func splitNameAndMessage(payload string) (string, string) {
	raw := strings.TrimSpace(payload)
	if raw == "" {
		return "", ""
	}
	if name, message, found := strings.Cut(raw, "|"); found {
		return strings.TrimSpace(name), strings.TrimSpace(message)
	}
	return raw, raw
}

// extractScheduleValue slices the schedule value off the front of rest
// and returns it with the remaining payload. "at" accepts a combined
// date-time token or separate date and time tokens merged into one
// instant; "cron" values may be quoted to tolerate embedded spaces or,
// unquoted, are exactly the first five whitespace-separated tokens.
func extractScheduleValue(kind, rest string) (string, string) {
	rawRest := strings.TrimSpace(rest)
	if rawRest == "" {
		return "", ""
	}
	loweredKind := strings.ToLower(strings.TrimSpace(kind))

	if loweredKind == "at" {
		chunks := strings.Fields(rawRest)
		if len(chunks) >= 2 && datePattern.MatchString(chunks[0]) && clockPattern.MatchString(chunks[1]) {
			return chunks[0] + "T" + chunks[1], strings.Join(chunks[2:], " ")
		}
		return chunks[0], strings.Join(chunks[1:], " ")
	}

	if loweredKind != "cron" {
		value, payload, _ := strings.Cut(rawRest, " ")
		return strings.TrimSpace(value), strings.TrimSpace(payload)
	}

	if rawRest[0] == '\'' || rawRest[0] == '"' {
		quote := rawRest[0]
		end := strings.IndexByte(rawRest[1:], quote)
		if end == -1 {
			return "", ""
		}
		value := strings.TrimSpace(rawRest[1 : 1+end])
		payload := strings.TrimSpace(rawRest[2+end:])
		return value, payload
	}

	chunks := strings.Fields(rawRest)
	if len(chunks) < 5 {
		return rawRest, ""
	}
	value := strings.Join(chunks[:5], " ")
	payload := strings.Join(chunks[5:], " ")
	return value, payload
}
