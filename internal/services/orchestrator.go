package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/models"
	"github.com/conciergehq/concierge-backend/internal/storage"
)

// historyWindow bounds how many recent exchanges are rendered into model
// prompts. Stored history is unbounded.
const historyWindow = 6

const apologyReply = "I apologize, I'm having trouble answering right now. Please try again in a moment."

// TurnResult is what the transport layer returns for one processed turn
type TurnResult struct {
	SessionID    string            `json:"session_id"`
	Reply        string            `json:"response"`
	Intent       string            `json:"intent"`
	BookingState string            `json:"booking_state"`
	Slots        map[string]string `json:"appointment_data"`
}

// DialogueService drives the per-turn conversation: intent classification,
// the appointment slot-filling state machine, and document Q&A with
// non-destructive switching between the two.
type DialogueService struct {
	sessions     *SessionManager
	classifier   *IntentClassifier
	retriever    *DocumentRetriever
	llm          CompletionService
	appointments storage.AppointmentStore // optional
	notifier     *NotifyService           // optional
	logger       *logrus.Logger

	now func() time.Time
}

// NewDialogueService creates the dialogue orchestrator. appointments and
// notifier may be nil; confirmed bookings are then not persisted or notified.
func NewDialogueService(
	sessions *SessionManager,
	classifier *IntentClassifier,
	retriever *DocumentRetriever,
	llm CompletionService,
	appointments storage.AppointmentStore,
	notifier *NotifyService,
	logger *logrus.Logger,
) *DialogueService {
	return &DialogueService{
		sessions:     sessions,
		classifier:   classifier,
		retriever:    retriever,
		llm:          llm,
		appointments: appointments,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// HandleTurn processes one user turn against a session. The session's lock
// is held for the whole turn. A language-model failure on the answer path
// yields an apology reply and leaves the session unmodified.
func (d *DialogueService) HandleTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message is required")
	}
	if sessionID == "" {
		sessionID = d.sessions.NewID()
	}

	unlock := d.sessions.Lock(sessionID)
	defer unlock()

	session, _, err := d.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	decision := d.classifier.Classify(ctx, text, session)

	var reply string
	switch decision.Intent {
	case models.IntentDocumentQuery:
		reply, err = d.answerDocumentQuery(ctx, session, text)
		if err != nil {
			// Turn-level failure: apologize and leave session state untouched
			d.logger.WithError(err).WithField("session_id", session.ID).Warn("document query failed")
			return &TurnResult{
				SessionID:    session.ID,
				Reply:        apologyReply,
				Intent:       decision.Intent,
				BookingState: session.BookingState,
				Slots:        session.Slots.Snapshot(),
			}, nil
		}
	default:
		reply = d.advanceBooking(ctx, session, text, decision.Hints)
	}

	session.ActiveIntent = decision.Intent
	session.History = append(session.History, models.Turn{User: text, Assistant: reply})
	if err := d.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &TurnResult{
		SessionID:    session.ID,
		Reply:        reply,
		Intent:       decision.Intent,
		BookingState: session.BookingState,
		Slots:        session.Slots.Snapshot(),
	}, nil
}

// answerDocumentQuery grounds the model on the best-matching passages and
// asks it to answer. Appointment state is deliberately not touched here.
func (d *DialogueService) answerDocumentQuery(ctx context.Context, session *models.Session, question string) (string, error) {
	if session.DocumentText == "" {
		return "No documents have been uploaded yet. Please upload a document first, then ask me about it.", nil
	}

	passage, err := d.retriever.Retrieve(question, session.DocumentText)
	if err != nil {
		passage = "No relevant information was found in the documents for this query."
	}

	answer, err := d.llm.Complete(ctx, groundingPrompt(passage, question, session), 0.7)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func groundingPrompt(passage, question string, session *models.Session) string {
	var builder strings.Builder
	builder.WriteString("You are a helpful assistant. Answer the user's question based on the following document information.\n\n")
	builder.WriteString("Document information:\n")
	builder.WriteString(passage)
	builder.WriteString("\n\n")

	if history := renderHistory(session.History, historyWindow); history != "" {
		builder.WriteString("Recent conversation:\n")
		builder.WriteString(history)
		builder.WriteString("\n")
	}

	builder.WriteString("User question: ")
	builder.WriteString(question)
	builder.WriteString("\n\nProvide a clear and concise answer. If the information is not in the documents, say so politely.")
	return builder.String()
}

// renderHistory formats the most recent exchanges for prompt context
func renderHistory(history []models.Turn, window int) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var builder strings.Builder
	for _, turn := range history {
		builder.WriteString("User: ")
		builder.WriteString(turn.User)
		builder.WriteString("\nAssistant: ")
		builder.WriteString(turn.Assistant)
		builder.WriteString("\n")
	}
	return builder.String()
}

// advanceBooking runs one transition of the slot-filling state machine
func (d *DialogueService) advanceBooking(ctx context.Context, session *models.Session, text string, hints SlotHints) string {
	if session.BookingState == models.BookingStateConfirmed {
		return "You already have a confirmed appointment:\n\n" +
			slotSummary(&session.Slots) +
			"\n\nTo make changes, please start a new session."
	}

	initiating := session.BookingState == models.BookingStateNone
	if initiating {
		session.BookingState = models.BookingStateCollecting
	}

	acks, invalid := d.fillSlots(ctx, session, text, hints, initiating)

	if session.Slots.AllFilled() {
		session.BookingState = models.BookingStateConfirmed
		reference := d.recordAppointment(ctx, session)

		reply := "Perfect! I have all the information needed for your appointment:\n\n" +
			slotSummary(&session.Slots) +
			"\n\nYour appointment has been booked."
		if reference != "" {
			reply += " Reference: " + reference
		}
		return reply
	}

	parts := make([]string, 0, 3)
	if len(acks) > 0 {
		parts = append(parts, strings.Join(acks, "\n"))
	}

	next := session.Slots.Missing()[0]
	if reason, failed := invalid[next]; failed {
		parts = append(parts, fmt.Sprintf("That doesn't look right: %s. %s", reason, slotPrompt(next)))
	} else {
		parts = append(parts, slotPrompt(next))
	}
	return strings.Join(parts, "\n\n")
}

// fillSlots attempts each slot independently in the canonical order
// name, phone, email, date. Pattern-matched candidates may restate an
// already-filled slot (last valid value wins); the bare-text fallback only
// fills the slot currently being asked. Returns acknowledgements for fills
// and per-slot failure reasons for attempted-but-invalid values.
func (d *DialogueService) fillSlots(ctx context.Context, session *models.Session, text string, hints SlotHints, initiating bool) ([]string, map[string]string) {
	slots := &session.Slots
	asked := firstMissing(slots)
	lower := strings.ToLower(text)

	var acks []string
	invalid := make(map[string]string)

	dateValue, dateErr := ExtractDate(text, d.now())

	// Bare answers ("John Doe" in reply to "your name?") are only treated as
	// the asked slot's value on follow-up turns, never on the turn that
	// opened the booking, and never when the text reads as a date.
	bareAllowed := !initiating && !containsBookingKeyword(lower) && len(strings.Fields(text)) <= 5

	// Name
	candidate := hints.Name
	if candidate == "" && asked == models.SlotName && bareAllowed &&
		dateErr != nil && !strings.ContainsAny(text, "@0123456789") {
		candidate = text
	}
	if candidate == "" && asked == models.SlotName && !initiating && d.llm != nil &&
		dateErr != nil && !strings.ContainsAny(text, "@0123456789") {
		candidate = d.extractNameViaModel(ctx, text)
	}
	if candidate != "" {
		if v := ValidateName(candidate); v.Valid {
			slots.Name = v.Value
			acks = append(acks, fmt.Sprintf("Got it! I've recorded your name as %s.", v.Value))
		} else if asked == models.SlotName {
			invalid[models.SlotName] = v.Reason
		}
	}

	// Phone
	candidate = hints.Phone
	if candidate == "" && asked == models.SlotPhone && bareAllowed &&
		dateErr != nil && strings.ContainsAny(text, "0123456789") {
		candidate = text
	}
	if candidate != "" {
		if v := ValidatePhone(candidate); v.Valid {
			slots.Phone = v.Value
			acks = append(acks, fmt.Sprintf("Phone number recorded: %s", v.Value))
		} else if asked == models.SlotPhone && dateErr != nil {
			invalid[models.SlotPhone] = v.Reason
		}
	}

	// Email
	candidate = hints.Email
	if candidate == "" && asked == models.SlotEmail && bareAllowed && strings.Contains(text, "@") {
		candidate = text
	}
	if candidate != "" {
		if v := ValidateEmail(candidate); v.Valid {
			slots.Email = v.Value
			acks = append(acks, fmt.Sprintf("Email recorded: %s", v.Value))
		} else if asked == models.SlotEmail {
			invalid[models.SlotEmail] = v.Reason
		}
	}

	// Date
	if dateErr == nil {
		slots.Date = dateValue
		acks = append(acks, fmt.Sprintf("Date recorded: %s", dateValue))
	} else if asked == models.SlotDate && len(acks) == 0 && len(invalid) == 0 && !initiating {
		invalid[models.SlotDate] = "I couldn't understand that date; try 'tomorrow', 'next Monday', 'in 3 days', or YYYY-MM-DD"
	}

	return acks, invalid
}

// extractNameViaModel asks the language model to pull a name out of free
// text. Failures are recoverable: the slot just stays missing.
func (d *DialogueService) extractNameViaModel(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(`Extract the person's name from this text. If no name is present, respond with "NOT_FOUND".
Text: %q
Name:`, text)

	out, err := d.llm.Complete(ctx, prompt, 0)
	if err != nil {
		d.logger.WithError(err).Debug("name extraction unavailable")
		return ""
	}
	out = strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`))
	if out == "" || strings.Contains(strings.ToUpper(out), "NOT_FOUND") {
		return ""
	}
	return out
}

// recordAppointment persists the confirmed booking and notifies the user.
// Both are best-effort; the conversational confirmation stands regardless.
func (d *DialogueService) recordAppointment(ctx context.Context, session *models.Session) string {
	if d.appointments == nil {
		return ""
	}

	appt, err := d.appointments.CreateAppointment(ctx, &models.Appointment{
		SessionID: session.ID,
		Name:      session.Slots.Name,
		Phone:     session.Slots.Phone,
		Email:     session.Slots.Email,
		Date:      session.Slots.Date,
	})
	if err != nil {
		d.logger.WithError(err).WithField("session_id", session.ID).Error("failed to persist appointment")
		return ""
	}

	d.logger.WithFields(logrus.Fields{
		"session_id":     session.ID,
		"appointment_id": appt.ID,
		"date":           appt.Date,
	}).Info("appointment confirmed")

	if d.notifier != nil {
		if err := d.notifier.SendBookingConfirmation(appt); err != nil {
			d.logger.WithError(err).Warn("failed to send booking confirmation")
		}
	}
	return appt.ID
}

func firstMissing(slots *models.Slots) string {
	missing := slots.Missing()
	if len(missing) == 0 {
		return ""
	}
	return missing[0]
}

func slotSummary(slots *models.Slots) string {
	return fmt.Sprintf("Name: %s\nPhone: %s\nEmail: %s\nDate: %s",
		slots.Name, slots.Phone, slots.Email, slots.Date)
}

func slotPrompt(slot string) string {
	switch slot {
	case models.SlotName:
		return "Could you please provide your full name?"
	case models.SlotPhone:
		return "Could you please provide your phone number?"
	case models.SlotEmail:
		return "Could you please provide your email address?"
	case models.SlotDate:
		return "When would you like to schedule your appointment? (You can say things like 'next Monday', 'tomorrow', or 'in 3 days'.)"
	}
	return ""
}
