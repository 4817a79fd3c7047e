package agent

import "strings"

// IntentLabel is the classified purpose of a single user message. It is
// derived from the message text alone and never stored.
type IntentLabel int

const (
	IntentNone IntentLabel = iota
	IntentGreeting
	IntentVague
	IntentPendingStatus
	IntentFileRequest
	IntentHRContact
)

// String returns the metric-friendly label name
func (l IntentLabel) String() string {
	switch l {
	case IntentGreeting:
		return "greeting"
	case IntentVague:
		return "vague"
	case IntentPendingStatus:
		return "pending_status"
	case IntentFileRequest:
		return "file_request"
	case IntentHRContact:
		return "hr_contact"
	default:
		return "none"
	}
}

var greetings = []string{"hi", "hello", "kumusta", "good morning", "good afternoon"}

// identityMarkers exclude messages like "hi, what is your name" from the
// pure-greeting path; those go through the general flow instead.
var identityMarkers = []string{"name", "who", "what"}

var vaguePhrases = []string{
	"guide me",
	"help me",
	"assist me",
	"i need help",
	"what do i do",
}

var pendingTaskPhrases = []string{
	"what are the tasks i need to comply",
	"what do i need",
	"what are my pending requirements",
	"what am i missing",
	"what do i still need to submit",
	"incomplete tasks",
	"lacking requirements",
	"pending requirements",
	"onboarding tasks status",
	"task status",
}

var fileRequestKeywords = []string{"form", "pdf", "file", "document", "download", "copy"}

var hrContactKeywords = []string{
	"contact hr",
	"hr contact",
	"hr email",
	"hr phone",
	"hr number",
	"reach hr",
	"call hr",
	"hr hotline",
}

// Classify inspects the raw message and picks the handling intent in fixed
// priority order; the first match wins and later checks are skipped.
// Pending-task status additionally requires a known user.
func Classify(message, userID string) IntentLabel {
	q := strings.ToLower(strings.TrimSpace(message))

	switch {
	case isPureGreeting(q):
		return IntentGreeting
	case containsAny(q, vaguePhrases):
		return IntentVague
	case userID != "" && containsAny(q, pendingTaskPhrases):
		return IntentPendingStatus
	case containsAny(q, fileRequestKeywords):
		return IntentFileRequest
	case containsAny(q, hrContactKeywords):
		return IntentHRContact
	default:
		return IntentNone
	}
}

// isPureGreeting is true only when the message is JUST a greeting and does
// not carry other intent like asking for a name.
func isPureGreeting(q string) bool {
	if containsAny(q, identityMarkers) {
		return false
	}
	for _, greeting := range greetings {
		if q == greeting {
			return true
		}
	}
	return false
}

func containsAny(q string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}
