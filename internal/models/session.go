package models

import (
	"time"

	"gorm.io/gorm"
)

// Intent tags assigned to each conversational turn
const (
	IntentDocumentQuery      = "document_query"
	IntentAppointmentBooking = "appointment_booking"
)

// Booking states for the appointment slot-filling flow
const (
	BookingStateNone       = "no_booking"
	BookingStateCollecting = "collecting"
	BookingStateConfirmed  = "confirmed"
)

// Slot names
const (
	SlotName  = "name"
	SlotPhone = "phone"
	SlotEmail = "email"
	SlotDate  = "date"
)

// SlotOrder is the canonical order in which missing slots are requested
var SlotOrder = []string{SlotName, SlotPhone, SlotEmail, SlotDate}

// Slots holds the appointment data collected so far. An empty string means
// the slot is still missing; values are only stored after validation.
type Slots struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// Get returns the value of the named slot
func (s *Slots) Get(slot string) string {
	switch slot {
	case SlotName:
		return s.Name
	case SlotPhone:
		return s.Phone
	case SlotEmail:
		return s.Email
	case SlotDate:
		return s.Date
	}
	return ""
}

// Set stores a validated value in the named slot
func (s *Slots) Set(slot, value string) {
	switch slot {
	case SlotName:
		s.Name = value
	case SlotPhone:
		s.Phone = value
	case SlotEmail:
		s.Email = value
	case SlotDate:
		s.Date = value
	}
}

// Missing returns the unfilled slots in canonical order
func (s *Slots) Missing() []string {
	var missing []string
	for _, slot := range SlotOrder {
		if s.Get(slot) == "" {
			missing = append(missing, slot)
		}
	}
	return missing
}

// AllFilled reports whether every slot has a validated value
func (s *Slots) AllFilled() bool {
	return len(s.Missing()) == 0
}

// AnyFilled reports whether at least one slot has a validated value
func (s *Slots) AnyFilled() bool {
	return len(s.Missing()) < len(SlotOrder)
}

// Snapshot returns a copy of the slot values keyed by slot name
func (s *Slots) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(SlotOrder))
	for _, slot := range SlotOrder {
		snapshot[slot] = s.Get(slot)
	}
	return snapshot
}

// Turn is one user/assistant exchange in a session's history
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Session holds all conversational state for one session ID
type Session struct {
	ID           string    `json:"session_id"`
	Slots        Slots     `json:"appointment_slots"`
	BookingState string    `json:"booking_state"` // "no_booking", "collecting", "confirmed"
	History      []Turn    `json:"history"`
	DocumentText string    `json:"document_text,omitempty"`
	ActiveIntent string    `json:"active_intent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Expired reports whether the session has been idle longer than ttl
func (s *Session) Expired(ttl time.Duration) bool {
	return time.Since(s.LastActiveAt) > ttl
}

// Clone returns a deep copy so stores can hand out sessions without
// sharing mutable state across goroutines
func (s *Session) Clone() *Session {
	clone := *s
	clone.History = make([]Turn, len(s.History))
	copy(clone.History, s.History)
	return &clone
}

// SessionRecord stores serialized session state for the database-backed
// session store
type SessionRecord struct {
	gorm.Model
	SessionID    string    `json:"session_id" gorm:"uniqueIndex"`
	Context      string    `json:"context"` // JSON-serialized Session
	LastActiveAt time.Time `json:"last_active_at"`
}
