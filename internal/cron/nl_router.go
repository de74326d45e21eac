package cron

import "time"

// Routing targets for natural-language schedule requests.
const (
	RouteNone       = "none"        // no schedule signal, leave to the dialogue loop
	RouteCronCreate = "cron_create" // valid repeating request, create a task
	RouteSchedule   = "schedule"    // one-off event, handled by the agenda service
	RouteClarify    = "clarify"     // ambiguous or incomplete, ask the user
)

// NLDecision is the routing outcome for one piece of free text.
type NLDecision struct {
	RouteTarget        string
	Reason             string
	ParseResult        *NLParseResult
	NeedsClarification bool
	ClarificationHint  string
}

// NLRouter maps extractor outcomes onto routing decisions consumed by
// the upstream dialogue router.
type NLRouter struct {
	parser NLParser
}

// NewNLRouter creates a router around the heuristic extractor.
func NewNLRouter() *NLRouter {
	return &NLRouter{}
}

// Route classifies text into one of the four routing targets.
func (r *NLRouter) Route(text string, now time.Time) NLDecision {
	parsed := r.parser.Parse(text, now)
	if parsed == nil {
		return NLDecision{RouteTarget: RouteNone, Reason: "not_applicable"}
	}

	if parsed.IntentKind == IntentRepeating && parsed.Valid() {
		return NLDecision{
			RouteTarget: RouteCronCreate,
			Reason:      parsed.Reason,
			ParseResult: parsed,
		}
	}

	if parsed.IntentKind == IntentSingleEvent {
		return NLDecision{
			RouteTarget: RouteSchedule,
			Reason:      parsed.Reason,
			ParseResult: parsed,
		}
	}

	hint := parsed.ClarificationHint
	if hint == "" {
		hint = "Please add more detail, for example: every day at 9:00 remind me to drink water."
	}
	reason := parsed.Reason
	if reason == "" {
		reason = "clarification_required"
	}
	return NLDecision{
		RouteTarget:        RouteClarify,
		Reason:             reason,
		ParseResult:        parsed,
		NeedsClarification: true,
		ClarificationHint:  hint,
	}
}
