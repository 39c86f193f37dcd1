package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conciergehq/concierge-backend/internal/models"
)

// MemoryStore holds all data in memory. Suitable for development and tests;
// state is lost on restart.
type MemoryStore struct {
	sessions     map[string]*models.Session
	appointments map[string]*models.Appointment

	// Mutexes for thread safety
	sessionMu     sync.RWMutex
	appointmentMu sync.RWMutex

	// Counter for appointment ID generation
	appointmentCounter int
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]*models.Session),
		appointments: make(map[string]*models.Appointment),
	}
}

// Session operations

func (m *MemoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MemoryStore) PutSession(_ context.Context, session *models.Session) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) ListSessions(_ context.Context) ([]*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	sessions := make([]*models.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session.Clone())
	}
	return sessions, nil
}

// Appointment operations

func (m *MemoryStore) CreateAppointment(_ context.Context, appt *models.Appointment) (*models.Appointment, error) {
	m.appointmentMu.Lock()
	defer m.appointmentMu.Unlock()

	m.appointmentCounter++
	now := time.Now()

	created := &models.Appointment{
		ID:        fmt.Sprintf("APT%05d", m.appointmentCounter),
		SessionID: appt.SessionID,
		Name:      appt.Name,
		Phone:     appt.Phone,
		Email:     appt.Email,
		Date:      appt.Date,
		Status:    models.AppointmentStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.appointments[created.ID] = created
	return created, nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	appt, exists := m.appointments[id]
	if !exists {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (m *MemoryStore) ListAppointments(_ context.Context) ([]*models.Appointment, error) {
	m.appointmentMu.RLock()
	defer m.appointmentMu.RUnlock()

	appointments := make([]*models.Appointment, 0, len(m.appointments))
	for _, appt := range m.appointments {
		copied := *appt
		appointments = append(appointments, &copied)
	}
	return appointments, nil
}
