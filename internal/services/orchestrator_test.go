package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciergehq/concierge-backend/internal/models"
	"github.com/conciergehq/concierge-backend/internal/storage"
)

func newTestDialogue(llm CompletionService) (*DialogueService, *storage.MemoryStore, *SessionManager) {
	store := storage.NewMemoryStore()
	manager := NewSessionManager(store, time.Hour, testLogger())
	classifier := NewIntentClassifier(nil, testLogger())

	d := NewDialogueService(manager, classifier, NewDocumentRetriever(), llm, store, nil, testLogger())
	d.now = func() time.Time { return refMonday }
	return d, store, manager
}

func failingLLM() CompletionService {
	return CompletionFunc(func(_ context.Context, _ string, _ float64) (string, error) {
		return "", errors.New("backend down")
	})
}

func cannedLLM(answer string) CompletionService {
	return CompletionFunc(func(_ context.Context, _ string, _ float64) (string, error) {
		return answer, nil
	})
}

func TestBookingFlowTurnByTurn(t *testing.T) {
	d, store, _ := newTestDialogue(failingLLM())
	ctx := context.Background()

	r1, err := d.HandleTurn(ctx, "", "I want to book an appointment")
	require.NoError(t, err)
	sid := r1.SessionID
	require.NotEmpty(t, sid)
	assert.Equal(t, models.IntentAppointmentBooking, r1.Intent)
	assert.Equal(t, models.BookingStateCollecting, r1.BookingState)
	assert.Contains(t, r1.Reply, "full name")

	r2, err := d.HandleTurn(ctx, sid, "John Doe")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", r2.Slots[models.SlotName])
	assert.Contains(t, r2.Reply, "phone number")

	r3, err := d.HandleTurn(ctx, sid, "555-123-4567")
	require.NoError(t, err)
	assert.Equal(t, "5551234567", r3.Slots[models.SlotPhone])
	assert.Contains(t, r3.Reply, "email")

	r4, err := d.HandleTurn(ctx, sid, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", r4.Slots[models.SlotEmail])
	assert.Contains(t, r4.Reply, "schedule your appointment")

	r5, err := d.HandleTurn(ctx, sid, "next Monday")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStateConfirmed, r5.BookingState)
	assert.Equal(t, "2025-06-09", r5.Slots[models.SlotDate])
	assert.Contains(t, r5.Reply, "booked")
	assert.Contains(t, r5.Reply, "Reference: APT00001")

	appointments, err := store.ListAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, sid, appointments[0].SessionID)
	assert.Equal(t, "John Doe", appointments[0].Name)
	assert.Equal(t, "5551234567", appointments[0].Phone)
	assert.Equal(t, "john@example.com", appointments[0].Email)
	assert.Equal(t, "2025-06-09", appointments[0].Date)
	assert.Equal(t, models.AppointmentStatusConfirmed, appointments[0].Status)
}

func TestBookingFlowSingleTurn(t *testing.T) {
	d, store, _ := newTestDialogue(failingLLM())
	ctx := context.Background()

	r, err := d.HandleTurn(ctx, "",
		"I'd like to book an appointment. My name is John Doe, my phone is 555-123-4567 and my email is john@example.com, tomorrow works")
	require.NoError(t, err)

	assert.Equal(t, models.BookingStateConfirmed, r.BookingState)
	assert.Equal(t, "John Doe", r.Slots[models.SlotName])
	assert.Equal(t, "5551234567", r.Slots[models.SlotPhone])
	assert.Equal(t, "john@example.com", r.Slots[models.SlotEmail])
	assert.Equal(t, "2025-06-03", r.Slots[models.SlotDate])

	appointments, err := store.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
}

func TestBookingInvalidValueReprompts(t *testing.T) {
	d, _, _ := newTestDialogue(failingLLM())
	ctx := context.Background()

	r1, err := d.HandleTurn(ctx, "", "book an appointment please")
	require.NoError(t, err)

	r2, err := d.HandleTurn(ctx, r1.SessionID, "x")
	require.NoError(t, err)
	assert.Empty(t, r2.Slots[models.SlotName])
	assert.Contains(t, r2.Reply, "That doesn't look right")
	assert.Contains(t, r2.Reply, "full name")
	assert.Equal(t, models.BookingStateCollecting, r2.BookingState)
}

func TestBookingExplicitRestateWins(t *testing.T) {
	d, _, _ := newTestDialogue(failingLLM())
	ctx := context.Background()

	r1, err := d.HandleTurn(ctx, "", "I'm John Doe, book an appointment for tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", r1.Slots[models.SlotDate])
	assert.Equal(t, "John Doe", r1.Slots[models.SlotName])
	assert.Contains(t, r1.Reply, "phone number")

	r2, err := d.HandleTurn(ctx, r1.SessionID, "actually make that next Friday")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-06", r2.Slots[models.SlotDate])
	assert.Contains(t, r2.Reply, "phone number")
}

func TestBookingConfirmedIsIdempotent(t *testing.T) {
	d, store, _ := newTestDialogue(failingLLM())
	ctx := context.Background()

	r, err := d.HandleTurn(ctx, "",
		"book an appointment, I'm John Doe, 5551234567, john@example.com, tomorrow")
	require.NoError(t, err)
	require.Equal(t, models.BookingStateConfirmed, r.BookingState)

	again, err := d.HandleTurn(ctx, r.SessionID, "book an appointment")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStateConfirmed, again.BookingState)
	assert.Contains(t, again.Reply, "already have a confirmed appointment")

	appointments, err := store.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
}

func TestDocumentQueryMidBookingPreservesSlots(t *testing.T) {
	d, _, manager := newTestDialogue(cannedLLM("We are open 9am to 5pm."))
	ctx := context.Background()

	sid, err := manager.SetDocument(ctx, "", hoursCorpus)
	require.NoError(t, err)

	r1, err := d.HandleTurn(ctx, sid, "I'd like to book an appointment")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStateCollecting, r1.BookingState)

	r2, err := d.HandleTurn(ctx, sid, "my name is John Doe")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", r2.Slots[models.SlotName])

	r3, err := d.HandleTurn(ctx, sid, "What are your business hours?")
	require.NoError(t, err)
	assert.Equal(t, models.IntentDocumentQuery, r3.Intent)
	assert.Equal(t, "We are open 9am to 5pm.", r3.Reply)
	assert.Equal(t, models.BookingStateCollecting, r3.BookingState)
	assert.Equal(t, "John Doe", r3.Slots[models.SlotName])

	r4, err := d.HandleTurn(ctx, sid, "555-123-4567")
	require.NoError(t, err)
	assert.Equal(t, "5551234567", r4.Slots[models.SlotPhone])
	assert.Contains(t, r4.Reply, "email")
}

func TestDocumentQueryWithoutDocument(t *testing.T) {
	store := storage.NewMemoryStore()
	manager := NewSessionManager(store, time.Hour, testLogger())
	classifier := NewIntentClassifier(cannedLLM("document_query"), testLogger())
	d := NewDialogueService(manager, classifier, NewDocumentRetriever(), failingLLM(), store, nil, testLogger())

	r, err := d.HandleTurn(context.Background(), "", "the weather is nice")
	require.NoError(t, err)
	assert.Equal(t, models.IntentDocumentQuery, r.Intent)
	assert.Contains(t, r.Reply, "No documents have been uploaded")
}

func TestModelFailureLeavesSessionUntouched(t *testing.T) {
	d, _, manager := newTestDialogue(failingLLM())
	ctx := context.Background()

	sid, err := manager.SetDocument(ctx, "", hoursCorpus)
	require.NoError(t, err)

	r, err := d.HandleTurn(ctx, sid, "What are your business hours?")
	require.NoError(t, err)
	assert.Contains(t, r.Reply, "try again")

	session, err := manager.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, session.History)
}

func TestUnknownSessionIDStartsFresh(t *testing.T) {
	d, _, _ := newTestDialogue(failingLLM())

	r, err := d.HandleTurn(context.Background(), "ghost-session", "book an appointment")
	require.NoError(t, err)
	assert.Equal(t, "ghost-session", r.SessionID)
	assert.Equal(t, models.BookingStateCollecting, r.BookingState)
}

func TestEmptyMessageRejected(t *testing.T) {
	d, _, _ := newTestDialogue(failingLLM())

	_, err := d.HandleTurn(context.Background(), "", "   ")
	assert.Error(t, err)
}

func TestHistoryAccumulates(t *testing.T) {
	d, _, manager := newTestDialogue(failingLLM())
	ctx := context.Background()

	r1, err := d.HandleTurn(ctx, "", "book an appointment")
	require.NoError(t, err)
	_, err = d.HandleTurn(ctx, r1.SessionID, "John Doe")
	require.NoError(t, err)

	session, err := manager.Get(ctx, r1.SessionID)
	require.NoError(t, err)
	require.Len(t, session.History, 2)
	assert.Equal(t, "book an appointment", session.History[0].User)
	assert.Equal(t, "John Doe", session.History[1].User)
}
