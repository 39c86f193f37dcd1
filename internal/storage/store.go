package storage

import (
	"context"
	"errors"

	"github.com/conciergehq/concierge-backend/internal/models"
)

// Sentinel errors returned by store implementations
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// SessionStore defines the interface for session persistence. The dialogue
// layer only talks to this interface, so sessions can live in memory, in
// Redis, or in PostgreSQL without touching orchestration logic.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	PutSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]*models.Session, error)
}

// AppointmentStore defines the interface for confirmed appointment records
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) (*models.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context) ([]*models.Appointment, error)
}
