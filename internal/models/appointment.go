package models

import "time"

// Appointment is a confirmed booking produced by the slot-filling flow.
// It is written once when a session reaches the confirmed state and is
// never modified by later turns.
type Appointment struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"index"`

	// Collected slot values (validated)
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Date  string `json:"date"` // YYYY-MM-DD

	Status string `json:"status"` // "confirmed"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppointmentStatus constants
const (
	AppointmentStatusConfirmed = "confirmed"
)
