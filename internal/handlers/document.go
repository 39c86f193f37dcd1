package handlers

import (
	"io"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/services"
)

// maxDocumentBytes caps uploaded document size
const maxDocumentBytes = 5 << 20 // 5 MB

// DocumentHandler handles document uploads for grounding answers
type DocumentHandler struct {
	sessions *services.SessionManager
	logger   *logrus.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(sessions *services.SessionManager, logger *logrus.Logger) *DocumentHandler {
	return &DocumentHandler{sessions: sessions, logger: logger}
}

// Upload attaches a plain-text document to a session, creating the session
// when no session_id is supplied
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file upload named 'file' is required",
		})
	}
	if fileHeader.Size > maxDocumentBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File too large",
		})
	}

	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read uploaded file",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes+1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read uploaded file",
		})
	}
	if !utf8.Valid(content) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File must be UTF-8 text",
		})
	}

	resolvedID, err := h.sessions.SetDocument(c.UserContext(), sessionID, string(content))
	if err != nil {
		h.logger.WithError(err).Error("failed to store document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store document",
		})
	}

	h.logger.WithFields(logrus.Fields{
		"session_id": resolvedID,
		"filename":   fileHeader.Filename,
		"bytes":      len(content),
	}).Info("document uploaded")

	return c.JSON(fiber.Map{
		"message":    "Document '" + fileHeader.Filename + "' uploaded successfully",
		"session_id": resolvedID,
	})
}
