package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/conciergehq/concierge-backend/internal/models"
)

// DatabaseStore persists sessions and appointments in PostgreSQL via GORM.
// Session state is serialized to JSON in the record's Context column.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Session operations

func (d *DatabaseStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var record models.SessionRecord
	err := d.db.WithContext(ctx).Where("session_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(record.Context), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &session, nil
}

func (d *DatabaseStore) PutSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}

	updates := map[string]interface{}{
		"context":        string(data),
		"last_active_at": session.LastActiveAt,
	}

	result := d.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("session_id = ?", session.ID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update session %s: %w", session.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		record := models.SessionRecord{
			SessionID:    session.ID,
			Context:      string(data),
			LastActiveAt: session.LastActiveAt,
		}
		if err := d.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create session %s: %w", session.ID, err)
		}
	}
	return nil
}

func (d *DatabaseStore) DeleteSession(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Where("session_id = ?", id).Delete(&models.SessionRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (d *DatabaseStore) ListSessions(ctx context.Context) ([]*models.Session, error) {
	var records []models.SessionRecord
	if err := d.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(records))
	for _, record := range records {
		var session models.Session
		if err := json.Unmarshal([]byte(record.Context), &session); err != nil {
			continue // skip corrupt rows
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

// Appointment operations

func (d *DatabaseStore) CreateAppointment(ctx context.Context, appt *models.Appointment) (*models.Appointment, error) {
	now := time.Now()
	created := &models.Appointment{
		ID:        fmt.Sprintf("APT%d", now.UnixNano()),
		SessionID: appt.SessionID,
		Name:      appt.Name,
		Phone:     appt.Phone,
		Email:     appt.Email,
		Date:      appt.Date,
		Status:    models.AppointmentStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := d.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return created, nil
}

func (d *DatabaseStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (d *DatabaseStore) ListAppointments(ctx context.Context) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	if err := d.db.WithContext(ctx).Order("created_at desc").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
