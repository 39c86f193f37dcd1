package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/models"
)

// Decision is the classifier output for a single turn
type Decision struct {
	Intent string
	Hints  SlotHints
}

// SlotHints carries slot values spotted during classification so the
// orchestrator can skip a second extraction pass. Values are raw candidate
// strings, still subject to validation.
type SlotHints struct {
	Name  string
	Phone string
	Email string
}

// IntentClassifier decides whether a turn continues a document query or an
// appointment booking. Deterministic rules run first; the language model is
// only consulted when no rule fires, so the common paths are testable
// without a model (pass nil to disable the fallback entirely).
type IntentClassifier struct {
	llm    CompletionService
	logger *logrus.Logger
}

// NewIntentClassifier creates an intent classifier. llm may be nil.
func NewIntentClassifier(llm CompletionService, logger *logrus.Logger) *IntentClassifier {
	return &IntentClassifier{llm: llm, logger: logger}
}

var bookingKeywords = []string{"book", "appointment", "schedule", "reservation", "reschedule"}

var questionPrefixes = []string{
	"what", "where", "when", "how", "why", "who", "which",
	"does ", "is ", "are ", "can ", "could ", "tell me", "summarize", "according to",
}

var (
	nameHintRe  = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|this is|name's)\s+([a-zA-Z][a-zA-Z\s.'\-]{1,80})`)
	phoneHintRe = regexp.MustCompile(`\+?[0-9][0-9\s\-().]{8,}[0-9]`)
	emailHintRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// Classify resolves the intent of one turn given the session state
func (ic *IntentClassifier) Classify(ctx context.Context, text string, session *models.Session) Decision {
	lower := strings.ToLower(text)
	hints := extractHints(text)

	// 1. Deterministic keyword rules
	if containsBookingKeyword(lower) {
		return Decision{Intent: models.IntentAppointmentBooking, Hints: hints}
	}
	if session.DocumentText != "" && looksLikeQuestion(lower) {
		return Decision{Intent: models.IntentDocumentQuery, Hints: hints}
	}

	// 2. An appointment mid-flight wins by default: a bare answer such as a
	// phone number continues the in-progress booking.
	if session.BookingState == models.BookingStateCollecting && !session.Slots.AllFilled() {
		return Decision{Intent: models.IntentAppointmentBooking, Hints: hints}
	}

	// 3. Language-model fallback
	if ic.llm != nil {
		out, err := ic.llm.Complete(ctx, classifyPrompt(text, session), 0)
		if err != nil {
			ic.logger.WithError(err).Debug("intent fallback unavailable")
		} else {
			lowerOut := strings.ToLower(out)
			switch {
			case strings.Contains(lowerOut, "appointment") || strings.Contains(lowerOut, "booking"):
				return Decision{Intent: models.IntentAppointmentBooking, Hints: hints}
			case strings.Contains(lowerOut, "document") || strings.Contains(lowerOut, "query"):
				return Decision{Intent: models.IntentDocumentQuery, Hints: hints}
			}
		}
	}

	// 4. Unparseable or unavailable model output
	if session.DocumentText != "" {
		return Decision{Intent: models.IntentDocumentQuery, Hints: hints}
	}
	return Decision{Intent: models.IntentAppointmentBooking, Hints: hints}
}

func containsBookingKeyword(lower string) bool {
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func looksLikeQuestion(lower string) bool {
	if strings.Contains(lower, "?") {
		return true
	}
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func classifyPrompt(text string, session *models.Session) string {
	summary := fmt.Sprintf("document loaded: %v; booking state: %s; slots filled: %d of %d",
		session.DocumentText != "", session.BookingState,
		len(models.SlotOrder)-len(session.Slots.Missing()), len(models.SlotOrder))

	return fmt.Sprintf(`You are an intent classifier for a conversational assistant.
Classify the user's input into one of these categories:
- "appointment_booking": the user wants to book or schedule an appointment, or is providing booking details
- "document_query": the user is asking about documents or general information

Session summary: %s
User input: %q

Respond with only one word: either "appointment_booking" or "document_query".`, summary, text)
}

// extractHints pulls inline slot candidates out of the turn text
func extractHints(text string) SlotHints {
	hints := SlotHints{
		Phone: strings.TrimSpace(phoneHintRe.FindString(text)),
		Email: strings.TrimSpace(emailHintRe.FindString(text)),
	}
	if match := nameHintRe.FindStringSubmatch(text); match != nil {
		hints.Name = trimNameCandidate(match[1])
	}
	return hints
}

// trimNameCandidate cuts a captured name at connective words and
// punctuation so "my name is John Doe and my email is ..." yields "John Doe"
func trimNameCandidate(candidate string) string {
	for _, sep := range []string{",", ".", ";", "\n"} {
		if idx := strings.Index(candidate, sep); idx >= 0 {
			candidate = candidate[:idx]
		}
	}
	lower := strings.ToLower(candidate)
	for _, connective := range []string{" and ", " my ", " phone", " email", " the "} {
		if idx := strings.Index(lower, connective); idx >= 0 {
			candidate = candidate[:idx]
			lower = lower[:idx]
		}
	}
	return strings.TrimSpace(candidate)
}
