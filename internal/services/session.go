package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/models"
	"github.com/conciergehq/concierge-backend/internal/storage"
)

// DefaultSessionTTL is used when no timeout is configured
const DefaultSessionTTL = 30 * time.Minute

// SessionManager resolves, expires and serializes access to sessions. The
// per-session mutex guarantees at most one in-flight mutation per session;
// turns against different sessions run in parallel.
type SessionManager struct {
	store  storage.SessionStore
	ttl    time.Duration
	logger *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewSessionManager creates a session manager on top of a session store
func NewSessionManager(store storage.SessionStore, ttl time.Duration, logger *logrus.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store:     store,
		ttl:       ttl,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
		sweepStop: make(chan struct{}),
	}
}

// Lock acquires the per-session mutex and returns the unlock function.
// Callers must hold the lock for the whole turn: acquired before reading
// session state, released after the updated state is written back.
func (sm *SessionManager) Lock(sessionID string) func() {
	sm.mu.Lock()
	lock, exists := sm.locks[sessionID]
	if !exists {
		lock = &sync.Mutex{}
		sm.locks[sessionID] = lock
	}
	sm.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Resolve returns the session for id, creating a fresh one when the id is
// unknown or the session has expired. The second return value reports
// whether a new session was created. Expired sessions are silently replaced.
func (sm *SessionManager) Resolve(ctx context.Context, id string) (*models.Session, bool, error) {
	if id == "" {
		return nil, false, fmt.Errorf("session id is required")
	}

	session, err := sm.store.GetSession(ctx, id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return sm.newSession(id), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve session %s: %w", id, err)
	}

	if session.Expired(sm.ttl) {
		if err := sm.store.DeleteSession(ctx, id); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
			sm.logger.WithError(err).WithField("session_id", id).Warn("failed to delete expired session")
		}
		sm.logger.WithField("session_id", id).Debug("session expired, starting fresh")
		return sm.newSession(id), true, nil
	}

	return session, false, nil
}

// NewID generates a fresh session identifier
func (sm *SessionManager) NewID() string {
	return uuid.NewString()
}

func (sm *SessionManager) newSession(id string) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:           id,
		BookingState: models.BookingStateNone,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Save writes the session back, refreshing its activity timestamp
func (sm *SessionManager) Save(ctx context.Context, session *models.Session) error {
	session.LastActiveAt = time.Now()
	if err := sm.store.PutSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// Get returns an active session for administrative reads. Expired sessions
// are reported as not found.
func (sm *SessionManager) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := sm.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Expired(sm.ttl) {
		return nil, storage.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session under its per-session lock
func (sm *SessionManager) Delete(ctx context.Context, id string) error {
	unlock := sm.Lock(id)
	defer unlock()

	return sm.store.DeleteSession(ctx, id)
}

// ListActive returns all non-expired sessions
func (sm *SessionManager) ListActive(ctx context.Context) ([]*models.Session, error) {
	sessions, err := sm.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.Expired(sm.ttl) {
			active = append(active, session)
		}
	}
	return active, nil
}

// SetDocument atomically replaces the document text for a session, creating
// the session if needed. Returns the resolved session id.
func (sm *SessionManager) SetDocument(ctx context.Context, id, text string) (string, error) {
	if id == "" {
		id = sm.NewID()
	}

	unlock := sm.Lock(id)
	defer unlock()

	session, _, err := sm.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	session.DocumentText = text
	if err := sm.Save(ctx, session); err != nil {
		return "", err
	}
	return session.ID, nil
}

// StartSweeper launches a background cleanup loop that removes expired
// sessions every interval. Stop terminates it.
func (sm *SessionManager) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.sweep()
			case <-sm.sweepStop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper loop
func (sm *SessionManager) Stop() {
	sm.sweepOnce.Do(func() { close(sm.sweepStop) })
}

func (sm *SessionManager) sweep() {
	ctx := context.Background()

	sessions, err := sm.store.ListSessions(ctx)
	if err != nil {
		sm.logger.WithError(err).Warn("session sweep failed to list sessions")
		return
	}

	for _, session := range sessions {
		if !session.Expired(sm.ttl) {
			continue
		}

		// Hold the per-session lock so a session is never deleted mid-turn;
		// re-check expiry after acquiring it.
		unlock := sm.Lock(session.ID)
		current, err := sm.store.GetSession(ctx, session.ID)
		if err == nil && current.Expired(sm.ttl) {
			if err := sm.store.DeleteSession(ctx, session.ID); err != nil {
				sm.logger.WithError(err).WithField("session_id", session.ID).Warn("failed to sweep session")
			} else {
				sm.logger.WithField("session_id", session.ID).Debug("swept expired session")
			}
		}
		unlock()
	}
}
