package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/models"
	"github.com/conciergehq/concierge-backend/internal/services"
	"github.com/conciergehq/concierge-backend/internal/storage"
)

// SessionHandler exposes administrative session operations
type SessionHandler struct {
	sessions *services.SessionManager
	logger   *logrus.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionManager, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// GetSession returns one active session by id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Session ID is required",
		})
	}

	session, err := h.sessions.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		h.logger.WithError(err).Error("failed to load session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load session",
		})
	}

	return c.JSON(sessionView(session))
}

// ListSessions returns all active sessions
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.sessions.ListActive(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to list sessions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sessions",
		})
	}

	views := make([]fiber.Map, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, sessionView(session))
	}

	return c.JSON(fiber.Map{
		"sessions": views,
		"count":    len(views),
	})
}

// DeleteSession removes a session by id
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Session ID is required",
		})
	}

	if err := h.sessions.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		h.logger.WithError(err).Error("failed to delete session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete session",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Session deleted",
		"session_id": id,
	})
}

func sessionView(session *models.Session) fiber.Map {
	return fiber.Map{
		"session_id":       session.ID,
		"active_intent":    session.ActiveIntent,
		"booking_state":    session.BookingState,
		"appointment_data": session.Slots.Snapshot(),
		"history":          session.History,
		"has_document":     session.DocumentText != "",
		"created_at":       session.CreatedAt,
		"last_active_at":   session.LastActiveAt,
	}
}
